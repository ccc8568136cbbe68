/*
Copyright © 2025 NEURAL SYMPHONY

history.go stores deployment records in a local SQLite database under the
user config directory. The cloud provider remains the source of truth; this
is only a convenience for status and clean.
*/
package history

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/kirsle/configdir"
)

// DB wraps the sql.DB connection
type DB struct {
	*sql.DB
}

// Deployment is a single recorded deployment.
type Deployment struct {
	InstanceName string
	Project      string
	Zone         string
	MachineType  string
	ExternalIP   string
	CreatedAt    time.Time
}

// Open initializes the database connection and creates tables if they don't
// exist.
func Open() (*DB, error) {
	configPath := configdir.LocalConfig("symphonyctl")
	if err := configdir.MakePath(configPath); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	dbPath := filepath.Join(configPath, "deployments.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &DB{db}
	if err := database.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return database, nil
}

func (d *DB) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS deployments (
		instance_name TEXT PRIMARY KEY,
		project TEXT,
		zone TEXT,
		machine_type TEXT,
		external_ip TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := d.Exec(query)
	return err
}

// SaveDeployment upserts a deployment record.
func (d *DB) SaveDeployment(dep *Deployment) error {
	query := `
	INSERT INTO deployments (instance_name, project, zone, machine_type, external_ip, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(instance_name) DO UPDATE SET
		project = excluded.project,
		zone = excluded.zone,
		machine_type = excluded.machine_type,
		external_ip = excluded.external_ip,
		created_at = excluded.created_at;
	`
	_, err := d.Exec(query, dep.InstanceName, dep.Project, dep.Zone, dep.MachineType, dep.ExternalIP, dep.CreatedAt)
	return err
}

// GetDeployment retrieves a deployment by instance name.
func (d *DB) GetDeployment(instanceName string) (*Deployment, error) {
	query := `SELECT instance_name, project, zone, machine_type, external_ip, created_at FROM deployments WHERE instance_name = ?`
	row := d.QueryRow(query, instanceName)

	var dep Deployment
	err := row.Scan(&dep.InstanceName, &dep.Project, &dep.Zone, &dep.MachineType, &dep.ExternalIP, &dep.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &dep, nil
}

// DeleteDeployment removes a deployment record.
func (d *DB) DeleteDeployment(instanceName string) error {
	_, err := d.Exec("DELETE FROM deployments WHERE instance_name = ?", instanceName)
	return err
}
