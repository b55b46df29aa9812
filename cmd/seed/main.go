package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/docopt/docopt-go"
	"github.com/joho/godotenv"

	"platformo/internal/auth"
	"platformo/internal/config"
	"platformo/internal/domain/models"
	"platformo/internal/domain/services"
	"platformo/internal/editor"
	"platformo/internal/realtime"
	"platformo/internal/repository/postgres"
	"platformo/internal/service"
	authz "platformo/internal/service/auth"
)

const usage = `Platformo database seeder.

Usage:
    seed [--drop-tables] [--schema-only] [--email=<email>] [--password=<password>] [--owner=<user_id>]
    seed -h | --help

Options:
    -h --help               Show this screen.
    --drop-tables           Drop all tables before seeding (fresh start).
    --schema-only           Only set up schema, don't seed projects.
    --email=<email>         Demo user to create (or reuse) through the Supabase admin API.
    --password=<password>   Password for a newly created demo user [default: platformo-demo].
    --owner=<user_id>       Seed projects for an existing user instead of --email.`

const demoTitle = "Demo: first AR scene"

// demoWorkspace is a run block with three models stacked in its statement
const demoWorkspace = `<xml xmlns="https://developers.google.com/blockly/xml">` +
	`<block type="ar_run" id="demo-run" x="40" y="40"><statement name="BLOCKS">` +
	`<block type="ar_3d_model" id="demo-cube"><field name="MODEL">CUBE</field>` +
	`<next><block type="ar_3d_model" id="demo-sphere"><field name="MODEL">SPHERE</field>` +
	`<next><block type="ar_3d_model" id="demo-cylinder"><field name="MODEL">CYLINDER</field></block></next>` +
	`</block></next></block></statement></block></xml>`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], "")
	if err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}
	dropTables, _ := opts.Bool("--drop-tables")
	schemaOnly, _ := opts.Bool("--schema-only")
	email, _ := opts.String("--email")
	password, _ := opts.String("--password")
	ownerID, _ := opts.String("--owner")

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := postgres.DropSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	if email != "" {
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			log.Fatalf("--email needs SUPABASE_URL and SUPABASE_KEY (service role)")
		}
		admin := auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey)
		ownerID, err = admin.EnsureUser(ctx, email, password)
		if err != nil {
			log.Fatalf("Failed to ensure demo user: %v", err)
		}
		log.Printf("👤 Demo user %s (ID: %s)", email, ownerID)
	}
	if ownerID == "" {
		log.Fatalf("Nothing to seed for: pass --email or --owner")
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	projectRepo := postgres.NewProjectRepository(repoConfig)
	authorizer := authz.NewOwnerBasedAuthorizer(projectRepo)
	projectService := service.NewProjectService(projectRepo, postgres.NewTransactionManager(repoConfig), authorizer, realtime.NopPublisher{}, logger)
	contentService := service.NewContentService(postgres.NewContentRepository(repoConfig), authorizer, realtime.NopPublisher{}, logger)

	project, err := seedDemoProject(ctx, projectService, contentService, ownerID)
	if err != nil {
		log.Fatalf("Failed to seed demo project: %v", err)
	}
	log.Printf("✅ Demo project %q (ID: %s)", project.Title, project.ID)
	log.Println("🎉 Seeding complete!")
}

// seedDemoProject creates the demo project once per owner and writes its
// workspace. Re-running leaves an existing demo project untouched.
func seedDemoProject(ctx context.Context, projects services.ProjectService, content services.ContentService, ownerID string) (*models.Project, error) {
	existing, err := projects.ListProjects(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	for i := range existing {
		if existing[i].Title == demoTitle {
			log.Println("ℹ️  Demo project already exists, skipping")
			return &existing[i], nil
		}
	}

	description := "Three shapes placed by one run block."
	project, err := projects.CreateProject(ctx, &services.CreateProjectRequest{
		OwnerID:     ownerID,
		Title:       demoTitle,
		Description: &description,
		IsPublic:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	envelope, err := editor.EncodeContent(demoWorkspace)
	if err != nil {
		return nil, err
	}
	if _, err := content.SaveContent(ctx, &services.SaveContentRequest{
		ProjectID: project.ID,
		UserID:    ownerID,
		Content:   envelope,
		Trigger:   models.SaveTriggerAPI,
	}); err != nil {
		return nil, fmt.Errorf("save workspace: %w", err)
	}
	return project, nil
}
