package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-core/internal/application/inventory"
	"github.com/jhoicas/stock-core/internal/domain"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

func addQty(ctx context.Context, tx inventory.Repos, qty int64) error {
	l, err := tx.Stock.GetForUpdate(ctx, "s1", "p1")
	if err != nil {
		return err
	}
	l.Quantity = l.Quantity.Add(decimal.NewFromInt(qty))
	return tx.Stock.Upsert(ctx, l)
}

func TestTxRunner_CommitAppliesEverything(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	err := s.TxRunner().Run(ctx, func(tx inventory.Repos) error {
		if err := addQty(ctx, tx, 10); err != nil {
			return err
		}
		if err := tx.Receipts.Save(ctx, &entity.GoodsReceipt{ID: "r1", Status: entity.ReceiptStatusValidated}); err != nil {
			return err
		}
		return tx.Movements.Append(ctx, &entity.MovementRecord{ID: "m1", StoreID: "s1", ProductID: "p1", Type: entity.MovementArrival})
	})
	require.NoError(t, err)

	l, _ := s.StockLevels().Get(ctx, "s1", "p1")
	assert.True(t, l.Quantity.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, int64(1), l.Version)
	doc, err := s.Receipts().GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReceiptStatusValidated, doc.Status)
	ms, _ := s.Movements().Query(ctx, repository.MovementFilter{})
	assert.Len(t, ms, 1)
}

func TestTxRunner_ErrorDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	boom := errors.New("boom")
	err := s.TxRunner().Run(ctx, func(tx inventory.Repos) error {
		_ = addQty(ctx, tx, 10)
		_ = tx.Movements.Append(ctx, &entity.MovementRecord{ID: "m1"})
		return boom
	})
	require.ErrorIs(t, err, boom)

	l, _ := s.StockLevels().Get(ctx, "s1", "p1")
	assert.True(t, l.Quantity.IsZero())
	ms, _ := s.Movements().Query(ctx, repository.MovementFilter{})
	assert.Empty(t, ms)
}

func TestTxRunner_UpsertRejectsNegative(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	err := s.TxRunner().Run(ctx, func(tx inventory.Repos) error {
		return addQty(ctx, tx, -1)
	})
	assert.ErrorIs(t, err, domain.ErrNegativeStock)
}

func TestTxRunner_RetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	runner := s.TxRunner()

	attempts := 0
	err := runner.Run(ctx, func(tx inventory.Repos) error {
		attempts++
		if err := addQty(ctx, tx, 5); err != nil {
			return err
		}
		if attempts == 1 {
			// escritura concurrente entre la lectura y la confirmación
			require.NoError(t, runner.Run(ctx, func(other inventory.Repos) error { return addQty(ctx, other, 100) }))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	l, _ := s.StockLevels().Get(ctx, "s1", "p1")
	assert.True(t, l.Quantity.Equal(decimal.NewFromInt(105)), "sin actualizaciones perdidas: %s", l.Quantity)
}

func TestTxRunner_GivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	runner := s.TxRunner()
	err := runner.Run(ctx, func(tx inventory.Repos) error {
		if err := addQty(ctx, tx, 1); err != nil {
			return err
		}
		return runner.Run(ctx, func(other inventory.Repos) error { return addQty(ctx, other, 1) })
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestTxRunner_ConcurrentIncrementsAreSerialized(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	runner := s.TxRunner()

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := runner.Run(ctx, func(tx inventory.Repos) error { return addQty(ctx, tx, 1) })
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrConflict)
				return
			}
			mu.Lock()
			ok++
			mu.Unlock()
		}()
	}
	wg.Wait()

	l, _ := s.StockLevels().Get(ctx, "s1", "p1")
	assert.True(t, l.Quantity.Equal(decimal.NewFromInt(int64(ok))), "cantidad %s, confirmadas %d", l.Quantity, ok)
}

func TestTxRunner_DocumentConflict(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Transfers().Save(ctx, &entity.Transfer{ID: "t1", Status: entity.TransferStatusInTransit}))
	runner := s.TxRunner()

	attempts := 0
	err := runner.Run(ctx, func(tx inventory.Repos) error {
		attempts++
		doc, err := tx.Transfers.GetForUpdate(ctx, "t1")
		if err != nil {
			return err
		}
		if doc.IsTerminal() {
			return &domain.StateTransitionError{Document: "transfer", ID: doc.ID, Status: doc.Status, Op: "recibir"}
		}
		if attempts == 1 {
			require.NoError(t, s.Transfers().Save(ctx, &entity.Transfer{ID: "t1", Status: entity.TransferStatusCancelled}))
		}
		doc.Status = entity.TransferStatusCompleted
		return tx.Transfers.Save(ctx, doc)
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	doc, _ := s.Transfers().GetByID(ctx, "t1")
	assert.Equal(t, entity.TransferStatusCancelled, doc.Status)
}

func TestTxRunner_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewStore().TxRunner().Run(ctx, func(inventory.Repos) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMovementRepository_QueryNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Movements()
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Append(ctx,
		&entity.MovementRecord{ID: "a", Date: base, StoreID: "s1", Type: entity.MovementArrival},
		&entity.MovementRecord{ID: "b", Date: base.Add(time.Hour), StoreID: "s2", Type: entity.MovementTransferOut},
		&entity.MovementRecord{ID: "c", Date: base.Add(2 * time.Hour), StoreID: "s1", Type: entity.MovementAdjustment, Comment: "Rotura"},
	))

	all, _ := repo.Query(ctx, repository.MovementFilter{})
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	s1, _ := repo.Query(ctx, repository.MovementFilter{StoreIDs: []string{"s1"}, Limit: 1})
	require.Len(t, s1, 1)
	assert.Equal(t, "c", s1[0].ID)

	found, _ := repo.Query(ctx, repository.MovementFilter{Search: "rotura"})
	require.Len(t, found, 1)

	from := base.Add(30 * time.Minute)
	ranged, _ := repo.Query(ctx, repository.MovementFilter{From: &from, Types: []entity.MovementType{entity.MovementTransferOut}})
	require.Len(t, ranged, 1)
	assert.Equal(t, "b", ranged[0].ID)
}

func TestSequenceRepository(t *testing.T) {
	ctx := context.Background()
	seq := NewSequenceRepository()
	var wg sync.WaitGroup
	seen := make(chan int64, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, _ := seq.Next(ctx, "BR-2026")
			seen <- n
		}()
	}
	wg.Wait()
	close(seen)
	unique := map[int64]bool{}
	for n := range seen {
		unique[n] = true
	}
	assert.Len(t, unique, 50)
	n, _ := seq.Next(ctx, "TR-2026")
	assert.Equal(t, int64(1), n)
}

func TestList_FiltroPorNumero(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	for _, n := range []string{"TR-2026-0001", "TR-2026-0002"} {
		require.NoError(t, s.Transfers().Save(ctx, &entity.Transfer{
			ID: n, Number: n, SourceStoreID: "s1", DestinationStoreID: "s2", CreatedAt: at,
		}))
	}

	got, err := s.Transfers().List(ctx, repository.DocumentFilter{Number: "TR-2026-0002"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "TR-2026-0002", got[0].Number)

	got, err = s.Transfers().List(ctx, repository.DocumentFilter{Number: "TR-2026-0009"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
