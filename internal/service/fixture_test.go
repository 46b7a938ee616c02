package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/repairhub/internal/auth"
	"github.com/iliyamo/repairhub/internal/memstore"
	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/repository"
	"github.com/iliyamo/repairhub/internal/storage"
)

var (
	alice   = model.Identity{Subject: "alice", Role: model.RoleUser}
	bob     = model.Identity{Subject: "bob", Role: model.RoleUser}
	somchai = model.Identity{Subject: "somchai", Role: model.RoleTechnician}
	nid     = model.Identity{Subject: "nid", Role: model.RoleTechnician}
	admin   = model.Identity{Subject: "root", Role: model.RoleAdmin}
)

// recordingFiles remembers every path it stored so tests can check what is
// still on disk.
type recordingFiles struct {
	*storage.DiskStore
	mu     sync.Mutex
	stored []string
}

func (r *recordingFiles) Store(ctx context.Context, c storage.Category, u storage.Upload) (string, error) {
	p, err := r.DiskStore.Store(ctx, c, u)
	if err == nil {
		r.mu.Lock()
		r.stored = append(r.stored, p)
		r.mu.Unlock()
	}
	return p, err
}

func (r *recordingFiles) live(t *testing.T) []string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, p := range r.stored {
		ok, err := r.Exists(p)
		require.NoError(t, err)
		if ok {
			out = append(out, p)
		}
	}
	return out
}

type stubIssuer struct{}

func (stubIssuer) Issue(_ context.Context, subject string, role model.Role) (auth.Credentials, error) {
	exp := time.Now().Add(time.Hour)
	return auth.Credentials{Access: "access-" + subject, AccessExp: exp, Refresh: "refresh-" + string(role), RefreshExp: exp}, nil
}

type fixture struct {
	ctx    context.Context
	mem    *memstore.Store
	files  *recordingFiles
	svc    *Services
	typeID uint64
}

func newFixture(t *testing.T) *fixture { return newFixtureWith(t, Options{BcryptCost: 4}) }

func newFixtureWith(t *testing.T, o Options) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := memstore.New()
	files := &recordingFiles{DiskStore: storage.NewStore(afero.NewMemMapFs())}
	f := &fixture{ctx: ctx, mem: mem, files: files, svc: New(MemoryStores(mem), files, stubIssuer{}, o)}

	_, err := mem.TaskTypes().Seed(ctx, []string{"Air conditioner", "Plumbing"})
	require.NoError(t, err)
	types, err := mem.TaskTypes().List(ctx)
	require.NoError(t, err)
	f.typeID = types[0].ID

	for _, u := range []*model.User{
		{Username: "alice", Name: "Alice A", Email: "alice@example.com", Phone: "0811111111", Gender: "female"},
		{Username: "bob", Name: "Bob B", Email: "bob@example.com", Phone: "0822222222", Gender: "male"},
	} {
		require.NoError(t, mem.Users().Create(ctx, u))
	}
	for _, tech := range []*model.Technician{
		{Username: "somchai", FullName: "Somchai Fixit", Email: "s@example.com", Phone: "0833333333", Age: 30, IDCard: "1111111111111"},
		{Username: "nid", FullName: "Nid Wrench", Email: "n@example.com", Phone: "0844444444", Age: 28, IDCard: "2222222222222"},
	} {
		require.NoError(t, mem.Technicians().Add(ctx, tech))
	}
	return f
}

func (f *fixture) createTask(t *testing.T) uint64 {
	t.Helper()
	v, err := f.svc.Tasks.Create(f.ctx, alice, NewTask{
		TaskTypeID: f.typeID,
		Title:      "AC repair",
		Detail:     "not cooling",
		Address:    "12 Main St",
		District:   "D",
		Province:   "P",
	})
	require.NoError(t, err)
	return v.ID
}

// taskAt returns a task held by somchai and forced to status s, bypassing
// the transition graph. A pending task is returned unassigned.
func (f *fixture) taskAt(t *testing.T, s model.TaskStatus) uint64 {
	t.Helper()
	id := f.createTask(t)
	if s == model.StatusPending {
		return id
	}
	require.NoError(t, f.mem.Tasks().Claim(f.ctx, id, somchai.Subject))
	if s != model.StatusAccepted {
		require.NoError(t, f.mem.Tasks().CompareAndSetStatus(f.ctx, id, model.StatusAccepted, s, repository.StatusGuard{}))
	}
	return id
}

func (f *fixture) status(t *testing.T, id uint64) model.TaskStatus {
	t.Helper()
	task, err := f.mem.Tasks().GetByID(f.ctx, id)
	require.NoError(t, err)
	return task.Status
}

func (f *fixture) withPayment(t *testing.T, taskID uint64, amount float64) *model.Payment {
	t.Helper()
	p := &model.Payment{TaskID: taskID, Type: model.PaymentTransfer, Amount: amount}
	require.NoError(t, f.mem.Payments().Create(f.ctx, p))
	return p
}

func image(name string) storage.Upload {
	return storage.Upload{Filename: name, Body: strings.NewReader("\x89PNG fake")}
}
