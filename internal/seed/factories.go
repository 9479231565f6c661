package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"postboard/internal/models"
	"postboard/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "Password123"

// Factory builds domain rows with fake content and persists them.
type Factory struct {
	db       *gorm.DB
	faker    *gofakeit.Faker
	maxDays  int
	password string
	seq      int
}

// NewFactory returns a Factory. A zero RandSeed picks a time-based seed.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	password := DefaultPassword
	if !opts.SkipBcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		password = string(hashed)
	}
	maxDays := opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	return &Factory{db: db, faker: gofakeit.New(seed), maxDays: maxDays, password: password}, nil
}

// Username returns a fresh username that passes signup validation.
func (f *Factory) Username() string {
	for {
		f.seq++
		name := strings.ToLower(f.faker.Username())
		name = strings.Map(func(r rune) rune {
			if r == '_' || r == '.' || r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, name)
		name = fmt.Sprintf("%s%d", name, f.seq)
		if validation.ValidateUsername(name) == nil {
			return name
		}
	}
}

// PubDate returns a time within the last maxDays days.
func (f *Factory) PubDate() time.Time {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	return time.Now().Add(-back).Truncate(time.Second)
}

// CreateUser persists a user with fake names.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username:  f.Username(),
		Password:  f.password,
		FirstName: f.faker.FirstName(),
		LastName:  f.faker.LastName(),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost returns an unsaved post by author, optionally in group.
func (f *Factory) BuildPost(author *models.User, group *models.Group) *models.Post {
	post := &models.Post{
		Text:     f.faker.Paragraph(1, f.faker.Number(1, 4), 12, "\n"),
		AuthorID: author.ID,
		PubDate:  f.PubDate(),
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	return post
}

// CreatePosts persists posts in batches.
func (f *Factory) CreatePosts(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.WithContext(ctx).CreateInBatches(posts, 200).Error
}

// CreateComment persists a comment by author on post.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: author.ID,
		Text:     f.faker.Sentence(f.faker.Number(4, 14)),
	}
	if err := f.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// Follow persists follower -> author and reports whether a new edge was
// written. Self edges and duplicates are skipped.
func (f *Factory) Follow(ctx context.Context, follower, author *models.User) (bool, error) {
	if follower.ID == author.ID {
		return false, nil
	}
	res := f.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{UserID: follower.ID, AuthorID: author.ID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Pick returns a random index in [0, n).
func (f *Factory) Pick(n int) int {
	return f.faker.Number(0, n-1)
}
