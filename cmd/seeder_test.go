package cmd

import (
	"context"
	"io"
	"log/slog"
	"strings"

	roomDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/room"
	userDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Seed fixture", func() {
	It("decodes camelCase keys and nested menus", func() {
		fixture, err := decodeSeed(strings.NewReader(`
users:
  - username: alice
    password: Secret123!
    displayName: Alice
    email: alice@example.com
    role: Admin
rooms:
  - name: Orion
    capacity: 8
    amenities: [projector]
menus:
  - name: Links
    linkType: ExternalUrl
    externalUrl: https://example.com
    children:
      - name: Wiki
        displayOrder: 1
        linkType: ExternalUrl
        externalUrl: https://wiki.example.com
        hidden: true
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(fixture.Users).To(HaveLen(1))
		Expect(fixture.Users[0].DisplayName).To(Equal("Alice"))
		Expect(fixture.Rooms[0].Amenities).To(ConsistOf("projector"))
		Expect(fixture.Menus[0].Children).To(HaveLen(1))
		Expect(fixture.Menus[0].Children[0].Hidden).To(BeTrue())
		Expect(*fixture.Menus[0].Children[0].ExternalURL).To(Equal("https://wiki.example.com"))
	})

	It("rejects unknown keys", func() {
		_, err := decodeSeed(strings.NewReader("users:\n  - nickname: bob\n"))
		Expect(err).To(HaveOccurred())
	})

	It("treats an empty document as an empty fixture", func() {
		fixture, err := decodeSeed(strings.NewReader(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(fixture.Users).To(BeEmpty())
	})

	It("parses the bundled fixture", func() {
		fixture, err := loadSeedFile("../db/seed.yml")
		Expect(err).NotTo(HaveOccurred())
		Expect(fixture.Users).NotTo(BeEmpty())
		Expect(fixture.Rooms).NotTo(BeEmpty())
		Expect(fixture.Menus).NotTo(BeEmpty())
	})
})

var _ = Describe("Seeder", func() {
	var (
		db     *gorm.DB
		seeder *Seeder
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&userDatamodel.User{}, &roomDatamodel.MeetingRoom{})).To(Succeed())

		seeder = newSeeder(db, bcrypt.MinCost, slog.New(slog.NewTextHandler(io.Discard, nil)))
		ctx = context.Background()
	})

	fixture := &SeedFixture{
		Users: []SeedUser{{
			Username: "alice", Password: "Secret123!", DisplayName: "Alice",
			Email: "alice@example.com", Role: "Admin",
		}},
		Rooms: []SeedRoom{{Name: "Orion", Capacity: 8, Location: "3F"}},
	}

	It("creates users and rooms through the services", func() {
		Expect(seeder.Run(ctx, fixture)).To(Succeed())

		var users []userDatamodel.User
		Expect(db.Find(&users).Error).To(Succeed())
		Expect(users).To(HaveLen(1))
		Expect(users[0].PasswordHash).NotTo(Equal("Secret123!"))

		var rooms int64
		Expect(db.Model(&roomDatamodel.MeetingRoom{}).Count(&rooms).Error).To(Succeed())
		Expect(rooms).To(BeEquivalentTo(1))
	})

	It("skips rows that already exist", func() {
		Expect(seeder.Run(ctx, fixture)).To(Succeed())
		Expect(seeder.Run(ctx, fixture)).To(Succeed())

		var users int64
		Expect(db.Model(&userDatamodel.User{}).Count(&users).Error).To(Succeed())
		Expect(users).To(BeEquivalentTo(1))
	})

	It("fails on invalid fixture rows", func() {
		err := seeder.Run(ctx, &SeedFixture{Rooms: []SeedRoom{{Name: "Tiny", Capacity: 0}}})
		Expect(err).To(MatchError(ContainSubstring("seed room Tiny")))
	})
})
