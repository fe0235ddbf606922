package files

import (
	"context"
	"sync"

	"docsearch/internal/repository"
)

// StoreClient is the slice of the search backend the files and search
// modules depend on.
type StoreClient interface {
	ResolveStore(ctx context.Context, userID, existingStoreName string) (string, error)
	UploadDocument(ctx context.Context, content, displayName, storeName string) (string, error)
	Answer(ctx context.Context, prompt string, storeNames []string) (string, error)
}

// StoreResolver yields the single canonical store name for a tenant,
// creating the remote store on first use. Resolution is serialized per
// tenant so concurrent first uploads cannot race into creating two stores,
// and the resolved name is cached so later requests converge on it.
type StoreResolver struct {
	files  *repository.FileUploadRepository
	search StoreClient

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	known map[string]string
}

func NewStoreResolver(files *repository.FileUploadRepository, search StoreClient) *StoreResolver {
	return &StoreResolver{
		files:  files,
		search: search,
		locks:  make(map[string]*sync.Mutex),
		known:  make(map[string]string),
	}
}

func (r *StoreResolver) Resolve(ctx context.Context, userID string) (string, error) {
	lock := r.tenantLock(userID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	cached := r.known[userID]
	r.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	existing, err := r.files.LatestStoreName(ctx, userID)
	if err != nil {
		return "", err
	}

	name, err := r.search.ResolveStore(ctx, userID, existing)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.known[userID] = name
	r.mu.Unlock()
	return name, nil
}

func (r *StoreResolver) tenantLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[userID] = lock
	}
	return lock
}
