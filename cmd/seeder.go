package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/frahmantamala/intranet-portal/internal/auth"
	"github.com/frahmantamala/intranet-portal/internal/menu"
	menuPostgres "github.com/frahmantamala/intranet-portal/internal/menu/postgres"
	"github.com/frahmantamala/intranet-portal/internal/room"
	roomPostgres "github.com/frahmantamala/intranet-portal/internal/room/postgres"
	"github.com/frahmantamala/intranet-portal/internal/user"
	userPostgres "github.com/frahmantamala/intranet-portal/internal/user/postgres"
	"github.com/frahmantamala/intranet-portal/pkg/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

var (
	clearData bool
	seedFile  string
)

// seedTables lists what --clear truncates, children first.
var seedTables = []string{
	"menu_items",
	"reservations",
	"uploaded_files",
	"content_articles",
	"refresh_tokens",
	"meeting_rooms",
	"users",
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed users, meeting rooms and menu items from a YAML fixture for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db, false)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		fixture, err := loadSeedFile(seedFile)
		if err != nil {
			log.Fatalf("failed to read seed file: %v", err)
		}

		ctx := context.Background()
		if clearData {
			if err := clearSeedTables(ctx, gormDB); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		lg := logger.LoggerWrapper()
		seeder := newSeeder(gormDB, cfg.Security.BCryptCost, lg)
		if err := seeder.Run(ctx, fixture); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		fmt.Println("Seed completed")
	},
}

type SeedFixture struct {
	Users []SeedUser `yaml:"users"`
	Rooms []SeedRoom `yaml:"rooms"`
	Menus []SeedMenu `yaml:"menus"`
}

type SeedUser struct {
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	DisplayName string `yaml:"displayName"`
	Email       string `yaml:"email"`
	Role        string `yaml:"role"`
}

func (u SeedUser) dto() user.CreateUserDTO {
	return user.CreateUserDTO{
		Username:    u.Username,
		Password:    u.Password,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Role:        u.Role,
	}
}

type SeedRoom struct {
	Name      string   `yaml:"name"`
	Capacity  int      `yaml:"capacity"`
	Location  string   `yaml:"location"`
	Amenities []string `yaml:"amenities"`
}

func (r SeedRoom) dto() room.CreateRoomDTO {
	return room.CreateRoomDTO{
		Name:      r.Name,
		Capacity:  r.Capacity,
		Location:  r.Location,
		Amenities: r.Amenities,
	}
}

// SeedMenu is a menu item with its children nested below it.
type SeedMenu struct {
	Name         string     `yaml:"name"`
	DisplayOrder int        `yaml:"displayOrder"`
	LinkType     string     `yaml:"linkType"`
	ArticleID    *int64     `yaml:"articleId"`
	ExternalURL  *string    `yaml:"externalUrl"`
	Hidden       bool       `yaml:"hidden"`
	Children     []SeedMenu `yaml:"children"`
}

func loadSeedFile(path string) (*SeedFixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeSeed(f)
}

func decodeSeed(r io.Reader) (*SeedFixture, error) {
	var fixture SeedFixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fixture); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed yaml: %w", err)
	}
	return &fixture, nil
}

func clearSeedTables(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range seedTables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// Seeder loads fixtures through the domain services so seeded rows pass the
// same validation as API writes.
type Seeder struct {
	users  *user.Service
	rooms  *room.Service
	menus  *menu.Service
	actor  *auth.User
	logger *slog.Logger
}

func newSeeder(db *gorm.DB, bcryptCost int, lg *slog.Logger) *Seeder {
	policy := auth.NewPolicy()
	return &Seeder{
		users:  user.NewService(userPostgres.NewRepository(db), policy, bcryptCost, lg),
		rooms:  room.NewService(roomPostgres.NewRoomRepository(db), policy, lg),
		menus:  menu.NewService(menuPostgres.NewMenuRepository(db), policy, lg),
		actor:  &auth.User{Username: "seeder", Role: auth.RoleAdmin},
		logger: lg,
	}
}

// Run is idempotent for users and rooms: existing names are skipped. Menus
// are only seeded into an empty tree.
func (s *Seeder) Run(ctx context.Context, fixture *SeedFixture) error {
	for _, u := range fixture.Users {
		_, err := s.users.Create(ctx, s.actor, u.dto())
		switch {
		case err == nil:
			fmt.Println("Seeded user:", u.Username)
		case errors.Is(err, user.ErrDuplicateUser), errors.Is(err, user.ErrDuplicateEmail):
			fmt.Println("User already exists, skipping:", u.Username)
		default:
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}

	for _, r := range fixture.Rooms {
		_, err := s.rooms.Create(ctx, s.actor, r.dto())
		switch {
		case err == nil:
			fmt.Println("Seeded meeting room:", r.Name)
		case errors.Is(err, room.ErrDuplicateRoom):
			fmt.Println("Meeting room already exists, skipping:", r.Name)
		default:
			return fmt.Errorf("seed room %s: %w", r.Name, err)
		}
	}

	if len(fixture.Menus) == 0 {
		return nil
	}
	tree, err := s.menus.Tree(ctx, s.actor, true)
	if err != nil {
		return err
	}
	if len(tree) > 0 {
		fmt.Println("Menu already has items, skipping menus")
		return nil
	}
	return s.seedMenus(ctx, nil, fixture.Menus)
}

func (s *Seeder) seedMenus(ctx context.Context, parentID *int64, items []SeedMenu) error {
	for _, item := range items {
		visible := !item.Hidden
		created, err := s.menus.Create(ctx, s.actor, menu.CreateMenuDTO{
			Name:         item.Name,
			ParentID:     parentID,
			DisplayOrder: item.DisplayOrder,
			LinkType:     item.LinkType,
			ArticleID:    item.ArticleID,
			ExternalURL:  item.ExternalURL,
			IsVisible:    &visible,
		})
		if err != nil {
			return fmt.Errorf("seed menu %s: %w", item.Name, err)
		}
		fmt.Println("Seeded menu item:", item.Name)

		if err := s.seedMenus(ctx, &created.ID, item.Children); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "db/seed.yml", "YAML fixture to load")
}
