package migrations

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	admin "cloud.google.com/go/spanner/admin/database/apiv1"
	"cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	instanceadmin "cloud.google.com/go/spanner/admin/instance/apiv1"
	"cloud.google.com/go/spanner/admin/instance/apiv1/instancepb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RunMigrations applies all DDL statements from migrations/*.sql to the given
// database, creating the instance and database first when they don't exist
// (the emulator starts empty).
func RunMigrations(ctx context.Context, projectID, instanceID, databaseID string) error {
	opts := clientOptions()

	projectName := fmt.Sprintf("projects/%s", projectID)
	instanceName := fmt.Sprintf("%s/instances/%s", projectName, instanceID)
	databasePath := fmt.Sprintf("%s/databases/%s", instanceName, databaseID)

	instanceAdmin, err := instanceadmin.NewInstanceAdminClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("creating instance admin client: %w", err)
	}
	defer instanceAdmin.Close()

	if err := ensureInstance(ctx, instanceAdmin, projectName, instanceName, instanceID); err != nil {
		return err
	}

	adminClient, err := admin.NewDatabaseAdminClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("creating database admin client: %w", err)
	}
	defer adminClient.Close()

	statements, err := loadDDLStatements()
	if err != nil {
		return err
	}
	if len(statements) == 0 {
		log.Println("no DDL statements found in migrations/")
		return nil
	}

	_, err = adminClient.GetDatabase(ctx, &databasepb.GetDatabaseRequest{Name: databasePath})
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
			log.Printf("creating database %s with %d DDL statement(s)", databaseID, len(statements))
			op, err := adminClient.CreateDatabase(ctx, &databasepb.CreateDatabaseRequest{
				Parent:          instanceName,
				CreateStatement: fmt.Sprintf("CREATE DATABASE `%s`", databaseID),
				ExtraStatements: statements,
			})
			if err != nil {
				return fmt.Errorf("creating database: %w", err)
			}
			if _, err := op.Wait(ctx); err != nil {
				return fmt.Errorf("waiting for database creation: %w", err)
			}
			return nil
		}
		return fmt.Errorf("checking database existence: %w", err)
	}

	log.Printf("applying %d DDL statement(s) to %s", len(statements), databaseID)
	op, err := adminClient.UpdateDatabaseDdl(ctx, &databasepb.UpdateDatabaseDdlRequest{
		Database:   databasePath,
		Statements: statements,
	})
	if err != nil {
		return fmt.Errorf("starting migrations: %w", err)
	}
	if err := op.Wait(ctx); err != nil {
		return fmt.Errorf("completing migrations: %w", err)
	}
	return nil
}

// clientOptions points the admin clients at the emulator when
// SPANNER_EMULATOR_HOST is set.
func clientOptions() []option.ClientOption {
	host := os.Getenv("SPANNER_EMULATOR_HOST")
	if host == "" {
		return nil
	}
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	return []option.ClientOption{option.WithEndpoint(host)}
}

func ensureInstance(ctx context.Context, client *instanceadmin.InstanceAdminClient, projectName, instanceName, instanceID string) error {
	_, err := client.GetInstance(ctx, &instancepb.GetInstanceRequest{Name: instanceName})
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.NotFound {
		return fmt.Errorf("checking instance existence: %w", err)
	}

	log.Printf("creating instance %s", instanceID)
	op, err := client.CreateInstance(ctx, &instancepb.CreateInstanceRequest{
		Parent:     projectName,
		InstanceId: instanceID,
		Instance:   &instancepb.Instance{DisplayName: instanceID},
	})
	if err != nil {
		return fmt.Errorf("creating instance: %w", err)
	}
	if _, err := op.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for instance creation: %w", err)
	}
	return nil
}

// loadDDLStatements reads every migrations/*.sql in order and splits the
// contents into individual DDL statements.
func loadDDLStatements() ([]string, error) {
	dir, err := findMigrationsDir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	var statements []string
	for _, file := range files {
		sql, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", file, err)
		}
		statements = append(statements, parseDDLStatements(string(sql))...)
	}
	return statements, nil
}

// findMigrationsDir walks up from the working directory to the module root
// (the directory holding go.mod) and returns its migrations/ directory.
func findMigrationsDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			migrationsPath := filepath.Join(dir, "migrations")
			if _, err := os.Stat(migrationsPath); err == nil {
				return migrationsPath, nil
			}
			return "", fmt.Errorf("migrations directory not found at %s", migrationsPath)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("could not find migrations directory (searched from %s)", wd)
}

// parseDDLStatements splits a SQL file into individual statements, stripping
// comments. Spanner DDL takes one statement per string, no semicolons.
func parseDDLStatements(sql string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		if idx := strings.Index(trimmed, "--"); idx >= 0 {
			trimmed = strings.TrimSpace(trimmed[:idx])
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(trimmed)

		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSuffix(strings.TrimSpace(current.String()), ";")
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}
