package service

// Upload is an image file submitted with a form.
type Upload struct {
	Filename string
	Data     []byte
}

// PostForm is the create/edit post form. Group is an optional group id.
type PostForm struct {
	Text  string  `form:"text" json:"text" validate:"notblank"`
	Group *uint   `form:"group" json:"group,omitempty"`
	Image *Upload `form:"-" json:"-"`
}

// CommentForm is the add-comment form.
type CommentForm struct {
	Text string `form:"text" json:"text" validate:"notblank"`
}

// SignupForm registers a new user.
type SignupForm struct {
	Username  string `form:"username" json:"username" validate:"required,username"`
	Password  string `form:"password" json:"password" validate:"required"`
	FirstName string `form:"first_name" json:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" json:"last_name" validate:"max=150"`
}

// LoginForm authenticates an existing user.
type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

// GroupForm creates a group.
type GroupForm struct {
	Title       string `form:"title" json:"title" validate:"notblank,max=200"`
	Slug        string `form:"slug" json:"slug" validate:"required,groupslug"`
	Description string `form:"description" json:"description" validate:"notblank"`
}
