package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

type Neo4jClient struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewNeo4jClient(ctx context.Context, cfg Neo4jConfig) (*Neo4jClient, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	// Verify connectivity
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}
	return &Neo4jClient{driver: driver, database: database}, nil
}

func (c *Neo4jClient) Close() error {
	return c.driver.Close(context.Background())
}

func (c *Neo4jClient) Ping(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *Neo4jClient) Session(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
	})
}

// ExecuteWrite runs a write transaction
func (c *Neo4jClient) ExecuteWrite(ctx context.Context, work func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := c.Session(ctx)
	defer session.Close(ctx)

	return session.ExecuteWrite(ctx, work)
}

// ExecuteRead runs a read transaction
func (c *Neo4jClient) ExecuteRead(ctx context.Context, work func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := c.Session(ctx)
	defer session.Close(ctx)

	return session.ExecuteRead(ctx, work)
}

var schema = []string{
	`CREATE CONSTRAINT repository_id IF NOT EXISTS FOR (r:Repository) REQUIRE r.id IS UNIQUE`,
	`CREATE CONSTRAINT repository_name IF NOT EXISTS FOR (r:Repository) REQUIRE (r.owner, r.name) IS UNIQUE`,
	`CREATE CONSTRAINT directory_id IF NOT EXISTS FOR (d:Directory) REQUIRE d.id IS UNIQUE`,
	`CREATE CONSTRAINT directory_path IF NOT EXISTS FOR (d:Directory) REQUIRE (d.repoId, d.path) IS UNIQUE`,
	`CREATE CONSTRAINT file_id IF NOT EXISTS FOR (f:File) REQUIRE f.id IS UNIQUE`,
	`CREATE CONSTRAINT file_path IF NOT EXISTS FOR (f:File) REQUIRE (f.repoId, f.path) IS UNIQUE`,
	`CREATE CONSTRAINT code_unit_id IF NOT EXISTS FOR (u:CodeUnit) REQUIRE u.id IS UNIQUE`,
	`CREATE CONSTRAINT analysis_job_id IF NOT EXISTS FOR (j:AnalysisJob) REQUIRE j.id IS UNIQUE`,
	`CREATE INDEX code_unit_file IF NOT EXISTS FOR (u:CodeUnit) ON (u.fileId)`,
	`CREATE INDEX directory_parent IF NOT EXISTS FOR (d:Directory) ON (d.parentId)`,
	`CREATE INDEX file_directory IF NOT EXISTS FOR (f:File) ON (f.directoryId)`,
	`CREATE INDEX analysis_job_repo IF NOT EXISTS FOR (j:AnalysisJob) ON (j.repoId)`,
}

// EnsureSchema creates the uniqueness constraints and lookup indexes.
func (c *Neo4jClient) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		_, err := c.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, stmt, nil)
			return nil, err
		})
		if err != nil {
			return fmt.Errorf("failed to apply schema %q: %w", stmt, err)
		}
	}
	return nil
}

// Store implements persistence for repositories, the directory/file/unit
// forest and analysis jobs. Every node carries the repoId of its repository
// so that deleting a repository cascades in one statement.
type Store struct {
	client *Neo4jClient
}

func NewStore(client *Neo4jClient) *Store {
	return &Store{client: client}
}
