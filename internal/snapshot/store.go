package snapshot

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/epeers/marketdata/internal/models"
)

// Snapshot is the unit of atomic publication: the asset directory, the
// reconciled daily series, and the auxiliary tables, all mutually consistent.
// A Snapshot is immutable once published. Readers that need cross-table
// consistency must capture one Snapshot with Store.Current and read every
// table from that captured value; repeated independent Current calls may
// straddle a publish.
type Snapshot struct {
	Users   []*models.User
	Assets  []*models.Asset
	Folders []*models.Folder
	Series  *models.DailySeries

	BuiltAt       time.Time
	BuildDuration time.Duration
}

// AssetBySymbol finds an asset in this snapshot's directory.
func (s *Snapshot) AssetBySymbol(symbol string) *models.Asset {
	for _, a := range s.Assets {
		if a.Symbol == symbol {
			return a
		}
	}
	return nil
}

// Store publishes snapshots to unlimited concurrent readers without read
// locks: Current is a single atomic pointer load. All mutation goes through
// clone→modify→publish; nothing a reader may hold is ever written in place.
type Store struct {
	current atomic.Pointer[Snapshot]

	// publishMu serializes pointer swaps so concurrent rebuilds cannot race
	// to publish. It is never held across I/O and never blocks readers.
	publishMu sync.Mutex

	// One lock per incrementally-mutated collection, so appending a user
	// never contends with folder changes. Held only across the in-memory
	// clone and swap.
	usersMu   sync.Mutex
	assetsMu  sync.Mutex
	foldersMu sync.Mutex
}

// NewStore creates a Store with an empty published snapshot, so readers
// never observe nil.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&Snapshot{Series: models.NewDailySeries(nil)})
	return s
}

// Current returns the published snapshot. Never blocks.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Publish atomically replaces the published snapshot. The previous snapshot
// stays valid for readers still holding it.
func (s *Store) Publish(snap *Snapshot) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	s.current.Store(snap)
}

// swap applies an in-memory edit to the current snapshot and republishes.
// Callers hold their collection lock; publishMu makes the read-modify-swap
// atomic with respect to edits of other collections and full publishes.
func (s *Store) swap(edit func(old *Snapshot) Snapshot) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	next := edit(s.current.Load())
	s.current.Store(&next)
}

// AppendUser adds a user to the published directory via clone and swap.
func (s *Store) AppendUser(u *models.User) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	s.swap(func(old *Snapshot) Snapshot {
		next := *old
		next.Users = append(append([]*models.User(nil), old.Users...), u)
		return next
	})
}

// AppendAsset adds an asset to the published directory via clone and swap.
// Assets are never removed; deactivation flips Active on the asset itself.
func (s *Store) AppendAsset(a *models.Asset) {
	s.assetsMu.Lock()
	defer s.assetsMu.Unlock()
	s.swap(func(old *Snapshot) Snapshot {
		next := *old
		next.Assets = append(append([]*models.Asset(nil), old.Assets...), a)
		return next
	})
}

// AddFolder adds a portfolio folder via clone and swap.
func (s *Store) AddFolder(f *models.Folder) {
	s.foldersMu.Lock()
	defer s.foldersMu.Unlock()
	s.swap(func(old *Snapshot) Snapshot {
		next := *old
		next.Folders = append(append([]*models.Folder(nil), old.Folders...), f)
		return next
	})
}

// RemoveFolder removes a portfolio folder via clone and swap. Removing an
// absent folder is a no-op.
func (s *Store) RemoveFolder(id int64) {
	s.foldersMu.Lock()
	defer s.foldersMu.Unlock()
	s.swap(func(old *Snapshot) Snapshot {
		next := *old
		folders := make([]*models.Folder, 0, len(old.Folders))
		for _, f := range old.Folders {
			if f.ID != id {
				folders = append(folders, f)
			}
		}
		next.Folders = folders
		return next
	})
}
