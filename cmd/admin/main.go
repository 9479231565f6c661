// Command admin provides management utilities for postboard.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"postboard/internal/bootstrap"
	"postboard/internal/config"
	"postboard/internal/repository"
	"postboard/internal/service"

	"github.com/joho/godotenv"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <username>                    - Grant admin rights")
	fmt.Println("  go run ./cmd/admin demote <username>                     - Revoke admin rights")
	fmt.Println("  go run ./cmd/admin list-admins                           - List all admins")
	fmt.Println("  go run ./cmd/admin create-group <slug> <title> <description> - Create a group")
	fmt.Println("  go run ./cmd/admin clear-cache                           - Drop cached pages")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close()

	users := service.NewUserService(repository.NewUserRepository(rt.DB))
	groups := service.NewGroupService(repository.NewGroupRepository(rt.DB))

	if err := run(ctx, rt, users, groups, os.Args[1:]); err != nil {
		rt.Close()
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func run(ctx context.Context, rt *bootstrap.Runtime, users *service.UserService, groups *service.GroupService, args []string) error {
	switch args[0] {
	case "promote", "demote":
		if len(args) < 2 {
			usage()
			os.Exit(1)
		}
		user, err := users.SetAdmin(ctx, args[1], args[0] == "promote")
		if err != nil {
			return err
		}
		fmt.Printf("%s (ID: %d) admin=%t\n", user.Username, user.ID, user.IsAdmin)

	case "list-admins":
		admins, err := users.ListAdmins(ctx)
		if err != nil {
			return err
		}
		if len(admins) == 0 {
			fmt.Println("No admins found")
			return nil
		}
		for _, a := range admins {
			fmt.Printf("ID: %d | Username: %s\n", a.ID, a.Username)
		}

	case "create-group":
		if len(args) < 4 {
			usage()
			os.Exit(1)
		}
		group, err := groups.Create(ctx, service.GroupForm{
			Slug:        args[1],
			Title:       args[2],
			Description: strings.Join(args[3:], " "),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created group %s (ID: %d)\n", group.Slug, group.ID)

	case "clear-cache":
		if err := rt.PageCache.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("Page cache cleared")

	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}
