package ledger

import "github.com/starford/vaultpress/internal/models"

// Ledger defines the interface for post and run bookkeeping.
// Consumers should depend on this interface rather than the concrete *DB type.
type Ledger interface {
	UpsertPost(p models.Post) error
	GetPost(slug string) (*models.Post, error)
	GetChecksum(source string) (string, error)
	ListPosts(limit, offset int, query string) ([]models.Post, int, error)
	DeletePost(slug string) error
	StartRun(command string) (*models.Run, error)
	FinishRun(run *models.Run) error
	ListRuns(limit int) ([]models.Run, error)
	Close() error
}

// Verify *DB satisfies Ledger at compile time.
var _ Ledger = (*DB)(nil)
