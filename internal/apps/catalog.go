// Package apps stores the catalog of self-hosted application links shown
// next to the container dashboard. It is independent of host data.
package apps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"evalgo.org/dockboard/internal/validation"
)

const (
	// DefaultIcon is used when an app has no icon.
	DefaultIcon = "https://cdn.jsdelivr.net/gh/selfhst/icons/png/default.png"
	// DefaultCategory groups apps without a category.
	DefaultCategory = "Other"
)

const schema = `
CREATE TABLE IF NOT EXISTS apps (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	url         TEXT NOT NULL,
	local_url   TEXT NOT NULL DEFAULT '',
	icon_url    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT 'Other',
	position    INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_apps_position ON apps(position);
`

// App is one catalog entry.
type App struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	URL         string    `json:"url" yaml:"url"`
	LocalURL    string    `json:"local_url,omitempty" yaml:"local_url,omitempty"`
	IconURL     string    `json:"icon_url" yaml:"icon_url"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string    `json:"category" yaml:"category"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Input is the user-supplied part of an App.
type Input struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	URL         string `json:"url" validate:"notblank,url"`
	LocalURL    string `json:"local_url,omitempty" validate:"omitempty,url"`
	IconURL     string `json:"icon_url,omitempty" validate:"omitempty,url"`
	Description string `json:"description,omitempty" validate:"max=1000"`
	Category    string `json:"category,omitempty" validate:"max=100"`
}

func (in Input) normalize() Input {
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)
	in.LocalURL = strings.TrimSpace(in.LocalURL)
	in.IconURL = strings.TrimSpace(in.IconURL)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if in.IconURL == "" {
		in.IconURL = DefaultIcon
	}
	if in.Category == "" {
		in.Category = DefaultCategory
	}
	return in
}

// Category is a named group of apps.
type Category struct {
	Name string `json:"name"`
	Apps []App  `json:"apps"`
}

// Catalog is the SQLite-backed app catalog.
type Catalog struct {
	db        *sql.DB
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// Open opens (creating if needed) the catalog database at path.
func Open(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("apps: create %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("apps: open sqlite store: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode = WAL"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apps: %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apps: apply schema: %w", err)
	}

	return &Catalog{db: db, validator: validation.New(), logger: logger, now: time.Now}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

const selectApps = `SELECT id, title, url, local_url, icon_url, description, category, created_at FROM apps`

// List returns all apps in insertion order.
func (c *Catalog) List(ctx context.Context) ([]App, error) {
	rows, err := c.db.QueryContext(ctx, selectApps+` ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("apps: list: %w", err)
	}
	defer rows.Close()

	out := []App{}
	for rows.Next() {
		app, err := scanApp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("apps: list: %w", err)
	}
	return out, nil
}

// Get returns one app.
func (c *Catalog) Get(ctx context.Context, id string) (App, error) {
	app, err := scanApp(c.db.QueryRowContext(ctx, selectApps+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return App{}, fmt.Errorf("app %q: %w", id, cerrdefs.ErrNotFound)
	}
	return app, err
}

// Add stores a new app under a generated id.
func (c *Catalog) Add(ctx context.Context, in Input) (App, error) {
	in = in.normalize()
	if err := c.validator.Validate(&in).Err(); err != nil {
		return App{}, err
	}

	app := fromInput(uuid.NewString(), in)
	app.CreatedAt = c.now().UTC()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO apps (id, title, url, local_url, icon_url, description, category, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM apps), ?)`,
		app.ID, app.Title, app.URL, app.LocalURL, app.IconURL, app.Description, app.Category, app.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return App{}, fmt.Errorf("apps: insert: %w", err)
	}

	c.logger.Info("Added self-hosted app", "app_id", app.ID, "title", app.Title)
	return app, nil
}

// Update replaces the user-supplied fields of an app.
func (c *Catalog) Update(ctx context.Context, id string, in Input) (App, error) {
	in = in.normalize()
	if err := c.validator.Validate(&in).Err(); err != nil {
		return App{}, err
	}

	res, err := c.db.ExecContext(ctx, `
		UPDATE apps SET title = ?, url = ?, local_url = ?, icon_url = ?, description = ?, category = ?
		WHERE id = ?`,
		in.Title, in.URL, in.LocalURL, in.IconURL, in.Description, in.Category, id)
	if err != nil {
		return App{}, fmt.Errorf("apps: update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return App{}, fmt.Errorf("app %q: %w", id, cerrdefs.ErrNotFound)
	}

	c.logger.Info("Updated self-hosted app", "app_id", id)
	return c.Get(ctx, id)
}

// Delete removes an app.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM apps WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("apps: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("app %q: %w", id, cerrdefs.ErrNotFound)
	}
	c.logger.Info("Deleted self-hosted app", "app_id", id)
	return nil
}

// Categories groups apps by category. Groups appear in the order their
// first app was added.
func (c *Catalog) Categories(ctx context.Context) ([]Category, error) {
	list, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return Group(list), nil
}

// Group groups apps by category, keeping first-appearance order.
func Group(list []App) []Category {
	out := []Category{}
	index := map[string]int{}
	for _, app := range list {
		name := app.Category
		if name == "" {
			name = DefaultCategory
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, Category{Name: name})
		}
		out[i].Apps = append(out[i].Apps, app)
	}
	return out
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApp(s scanner) (App, error) {
	var (
		app     App
		created string
	)
	err := s.Scan(&app.ID, &app.Title, &app.URL, &app.LocalURL, &app.IconURL, &app.Description, &app.Category, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return App{}, err
		}
		return App{}, fmt.Errorf("apps: scan: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		app.CreatedAt = t
	}
	return app, nil
}

func fromInput(id string, in Input) App {
	return App{
		ID:          id,
		Title:       in.Title,
		URL:         in.URL,
		LocalURL:    in.LocalURL,
		IconURL:     in.IconURL,
		Description: in.Description,
		Category:    in.Category,
	}
}
