package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/repository"
	"github.com/iliyamo/repairhub/internal/storage"
)

func TestCreateThenGet_RoundTrip(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.Tasks.Create(f.ctx, alice, NewTask{
		TaskTypeID: f.typeID,
		Title:      "AC repair",
		Address:    "12 Main St",
		District:   "D",
		Province:   "P",
	})
	require.NoError(t, err)

	got, err := f.svc.Tasks.Get(f.ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "AC repair", got.Title)
	assert.Equal(t, "12 Main St", got.Address)
	assert.Equal(t, "D", got.District)
	assert.Equal(t, "P", got.Province)
	assert.Equal(t, f.typeID, got.TaskTypeID)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Nil(t, got.Assignee)
	assert.Equal(t, "alice", got.Requester)
	require.NotNil(t, got.Contact)
	assert.Equal(t, "0811111111", got.Contact.Phone)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	cases := map[string]NewTask{
		"missing title":    {TaskTypeID: f.typeID, Address: "a", District: "d", Province: "p"},
		"blank address":    {TaskTypeID: f.typeID, Title: "t", Address: "  ", District: "d", Province: "p"},
		"unknown type":     {TaskTypeID: 999, Title: "t", Address: "a", District: "d", Province: "p"},
		"missing province": {TaskTypeID: f.typeID, Title: "t", Address: "a", District: "d"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Tasks.Create(f.ctx, alice, in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	_, err := f.svc.Tasks.Create(f.ctx, somchai, NewTask{TaskTypeID: f.typeID, Title: "t", Address: "a", District: "d", Province: "p"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCreate_StoresImagesOnTask(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.Tasks.Create(f.ctx, alice, NewTask{
		TaskTypeID: f.typeID, Title: "t", Address: "a", District: "d", Province: "p",
		Images: []storage.Upload{image("a.jpg"), image("b.png")},
	})
	require.NoError(t, err)
	require.Len(t, v.Images, 2)
	assert.ElementsMatch(t, v.Images, f.files.live(t))
}

func TestCreate_BadImageLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Tasks.Create(f.ctx, alice, NewTask{
		TaskTypeID: f.typeID, Title: "t", Address: "a", District: "d", Province: "p",
		Images: []storage.Upload{image("a.jpg"), image("notes.txt")},
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, f.files.live(t))

	tasks, err := f.mem.Tasks().List(f.ctx, repository.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestClaim_RaceHasExactlyOneWinner(t *testing.T) {
	f := newFixture(t)
	id := f.createTask(t)

	const n = 16
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			tech := model.Identity{Subject: fmt.Sprintf("tech-%d", i), Role: model.RoleTechnician}
			_, errs[i] = f.svc.Tasks.Claim(f.ctx, tech, id)
		}(i)
	}
	close(start)
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "two claims succeeded")
			winner = i
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrConflict)
		assert.ErrorIs(t, err, repository.ErrAlreadyClaimed)
	}
	require.NotEqual(t, -1, winner)

	task, err := f.mem.Tasks().GetByID(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, task.Status)
	assert.True(t, task.AssignedTo(fmt.Sprintf("tech-%d", winner)))
}

func TestClaim_FailuresAreDistinguishable(t *testing.T) {
	f := newFixture(t)
	id := f.createTask(t)

	_, err := f.svc.Tasks.Claim(f.ctx, somchai, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NotErrorIs(t, err, apperr.ErrConflict)

	v, err := f.svc.Tasks.Claim(f.ctx, somchai, id)
	require.NoError(t, err)
	assert.True(t, v.AssignedTo("somchai"))
	assert.Equal(t, model.StatusAccepted, v.Status)

	_, err = f.svc.Tasks.Claim(f.ctx, nid, id)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NotErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.svc.Tasks.UpdateStatus(f.ctx, somchai, id, model.StatusSuccessful)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.NotErrorIs(t, err, apperr.ErrConflict)

	_, err = f.svc.Tasks.Claim(f.ctx, alice, id)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUpdateStatus_IllegalPairsLeaveTaskUnchanged(t *testing.T) {
	f := newFixture(t)
	for _, from := range model.Statuses {
		for _, to := range model.Statuses {
			if Canonical.Allows(from, to) {
				continue
			}
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				id := f.taskAt(t, from)
				_, err := f.svc.Tasks.UpdateStatus(f.ctx, somchai, id, to)
				if from == model.StatusPending {
					// Nobody holds a pending task, so the assignee check
					// rejects the caller before the graph is consulted.
					assert.ErrorIs(t, err, apperr.ErrForbidden)
					assert.NotErrorIs(t, err, apperr.ErrInvalidTransition)
					task, err := f.mem.Tasks().GetByID(f.ctx, id)
					require.NoError(t, err)
					assert.Equal(t, model.StatusPending, task.Status)
					assert.Nil(t, task.Assignee)
					return
				}
				require.ErrorIs(t, err, apperr.ErrInvalidTransition)
				assert.NotErrorIs(t, err, apperr.ErrConflict)

				var te *apperr.TransitionError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, string(from), te.From)
				assert.Equal(t, string(to), te.To)
				assert.Equal(t, from, f.status(t, id))
			})
		}
	}
}

func TestUpdateStatus_LegalEdges(t *testing.T) {
	f := newFixture(t)
	for from, targets := range Canonical {
		for _, to := range targets {
			if from == model.StatusPending {
				continue // claiming is its own operation
			}
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				id := f.taskAt(t, from)
				if to == model.StatusSuccessful {
					f.withPayment(t, id, 100)
				}
				v, err := f.svc.Tasks.UpdateStatus(f.ctx, somchai, id, to)
				require.NoError(t, err)
				assert.Equal(t, to, v.Status)
				assert.NotNil(t, v.Contact)
			})
		}
	}
}

func TestUpdateStatus_UnknownTarget(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Tasks.UpdateStatus(f.ctx, somchai, 12345, "done")

	var te *apperr.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Empty(t, te.From)
	assert.Equal(t, `unknown status "done"`, te.Error())
}

func TestUpdateStatus_OnlyAssignee(t *testing.T) {
	f := newFixture(t)
	id := f.taskAt(t, model.StatusAccepted)

	for _, who := range []model.Identity{nid, alice, admin} {
		_, err := f.svc.Tasks.UpdateStatus(f.ctx, who, id, model.StatusFixing)
		assert.ErrorIs(t, err, apperr.ErrForbidden, who.Subject)
	}
	assert.Equal(t, model.StatusAccepted, f.status(t, id))

	_, err := f.svc.Tasks.UpdateStatus(f.ctx, somchai, 999, model.StatusFixing)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateStatus_SuccessfulConfirmsPayment(t *testing.T) {
	f := newFixture(t)
	id := f.taskAt(t, model.StatusPayment)

	_, err := f.svc.Tasks.UpdateStatus(f.ctx, somchai, id, model.StatusSuccessful)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, model.StatusPayment, f.status(t, id))

	f.withPayment(t, id, 1500)
	v, err := f.svc.Tasks.UpdateStatus(f.ctx, somchai, id, model.StatusSuccessful)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccessful, v.Status)

	p, err := f.mem.Payments().GetByTask(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccessful, p.Status)
}

func TestUpdateStatus_LegacyGraph(t *testing.T) {
	f := newFixtureWith(t, Options{BcryptCost: 4, LegacyTransitions: true})
	id := f.taskAt(t, model.StatusFixing)

	_, err := f.svc.Tasks.UpdateStatus(f.ctx, somchai, id, model.StatusPayment)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	v, err := f.svc.Tasks.UpdateStatus(f.ctx, somchai, id, model.StatusSuccessful)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccessful, v.Status)
}

func TestRequestCancel(t *testing.T) {
	f := newFixture(t)
	id := f.taskAt(t, model.StatusAccepted)

	_, err := f.svc.Tasks.RequestCancel(f.ctx, bob, id)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.Tasks.RequestCancel(f.ctx, somchai, id)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	v, err := f.svc.Tasks.RequestCancel(f.ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRequestCanceling, v.Status)

	_, err = f.svc.Tasks.RequestCancel(f.ctx, alice, id)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	fixing := f.taskAt(t, model.StatusFixing)
	_, err = f.svc.Tasks.RequestCancel(f.ctx, alice, fixing)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, model.StatusFixing, f.status(t, fixing))
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture(t)
	id := f.createTask(t)

	_, err := f.svc.Tasks.Get(f.ctx, bob, id)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.Tasks.Get(f.ctx, nid, id)
	assert.NoError(t, err, "open tasks are visible to technicians")

	_, err = f.svc.Tasks.Claim(f.ctx, somchai, id)
	require.NoError(t, err)
	_, err = f.svc.Tasks.Get(f.ctx, nid, id)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.Tasks.Get(f.ctx, admin, id)
	assert.NoError(t, err)
}

func TestDetail_IncludesPaymentAndImages(t *testing.T) {
	f := newFixture(t)
	id := f.taskAt(t, model.StatusPayment)
	p := f.withPayment(t, id, 800)
	require.NoError(t, f.mem.Payments().AddDetail(f.ctx, &model.PaymentDetail{PaymentID: p.ID, Detail: "gas refill", Price: 800}))
	_, err := f.svc.Media.AttachImage(f.ctx, somchai, id, image("after.jpg"), nil)
	require.NoError(t, err)

	d, err := f.svc.Tasks.Detail(f.ctx, alice, id)
	require.NoError(t, err)
	require.NotNil(t, d.TaskType)
	assert.Equal(t, "Air conditioner", d.TaskType.Name)
	require.NotNil(t, d.Payment)
	assert.InDelta(t, 800.0, d.Payment.Amount, 0.001)
	assert.Len(t, d.Details, 1)
	assert.Len(t, d.Images, 1)
}

func TestListAvailableAndMine(t *testing.T) {
	f := newFixture(t)
	open := f.createTask(t)
	held := f.taskAt(t, model.StatusFixing)

	avail, err := f.svc.Tasks.ListAvailable(f.ctx, nid)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, open, avail[0].ID)

	mine, err := f.svc.Tasks.ListMine(f.ctx, somchai)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, held, mine[0].ID)

	own, err := f.svc.Tasks.ListMine(f.ctx, alice)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, held, own[0].ID, "newest first")

	_, err = f.svc.Tasks.ListAvailable(f.ctx, alice)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCanonicalGraphTerminals(t *testing.T) {
	for _, s := range []model.TaskStatus{model.StatusRequestCanceling, model.StatusSuccessful, model.StatusFailed, model.StatusCancelled} {
		assert.True(t, Canonical.Terminal(s), s)
	}
	assert.False(t, Canonical.Terminal(model.StatusPayment))
}
