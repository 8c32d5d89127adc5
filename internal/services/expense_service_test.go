package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetab/internal/analytics"
	"expensetab/internal/backend"
	"expensetab/internal/core"
	"expensetab/internal/exporter"
	"expensetab/internal/importer"
	"expensetab/internal/sheets/memory"
	"expensetab/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) PublishStateChanged(_ context.Context, op string, count int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, fmt.Sprintf("%s:%d", op, count))
	return p.err
}

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func newService(t *testing.T, opts ...Option) *ExpenseService {
	t.Helper()
	n := 0
	st, err := store.Open(context.Background(), nil, store.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("e%d", n)
	}))
	require.NoError(t, err)
	clock := WithClock(func() time.Time { return time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC) })
	return NewExpenseService(st, append([]Option{clock}, opts...)...)
}

func expense(desc, amount, cat string, y, m, d int) core.Expense {
	return core.Expense{
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Category:    cat,
		Date:        core.NewDate(y, m, d),
	}
}

const validCSV = "date,description,amount,category\n" +
	"01/15/2024,Coffee,3.50,Food\n" +
	"01/16/2024,Bus,2.40,transport\n"

func TestAddExpensePublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, WithPublisher(pub))
	ctx := context.Background()

	e := expense("Rent", "900", "2", 2024, 1, 31)
	e.IsRecurring = true
	e.Frequency = core.Monthly
	added, err := svc.AddExpense(ctx, e)
	require.NoError(t, err)
	assert.Len(t, added, 12)

	_, err = svc.AddExpense(ctx, expense("Bad", "0", "2", 2024, 1, 1))
	assert.ErrorIs(t, err, store.ErrInvalidExpense)

	require.NoError(t, svc.DeleteExpense(ctx, added[0].ID))
	n, err := svc.BulkDelete(ctx, []string{added[1].ID, added[2].ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, []string{"create:12", "delete:1", "bulk_delete:2"}, pub.Events())
}

func TestPublisherFailureDoesNotFailMutation(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newService(t, WithPublisher(pub))

	_, err := svc.AddExpense(context.Background(), expense("Coffee", "3", "4", 2024, 1, 1))
	require.NoError(t, err)
	assert.Len(t, svc.Expenses(analytics.Criteria{}), 1)
}

func TestUpdateAndBulkUpdate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	added, err := svc.AddExpense(ctx, expense("Coffee", "3", "4", 2024, 1, 1))
	require.NoError(t, err)

	e := added[0]
	e.Note = "decaf"
	require.NoError(t, svc.UpdateExpense(ctx, e))
	got, err := svc.Expense(e.ID)
	require.NoError(t, err)
	assert.Equal(t, "decaf", got.Note)

	e.Description = "Tea"
	n, err := svc.BulkUpdate(ctx, []core.Expense{e})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	found := svc.Expenses(analytics.Criteria{Search: "tea"})
	require.Len(t, found, 1)
}

func TestImportCommitsValidFile(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, WithPublisher(pub))

	res, err := svc.Import(context.Background(), "expenses.csv", strings.NewReader(validCSV))
	require.NoError(t, err)
	require.Equal(t, importer.OutcomeSuccess, res.Outcome)

	all := svc.Expenses(analytics.Criteria{})
	require.Len(t, all, 2)
	assert.Equal(t, "3", all[1].Category)
	assert.Equal(t, []string{"import:2"}, pub.Events())
}

func TestImportWithErrorsCommitsNothing(t *testing.T) {
	svc := newService(t)
	in := validCSV + "13/01/2024,Rent,1200,Housing\n"

	res, err := svc.Import(context.Background(), "expenses.csv", strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, importer.OutcomePartial, res.Outcome)
	assert.Empty(t, svc.Expenses(analytics.Criteria{}))

	res, err = svc.Import(context.Background(), "expenses.pdf", strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, importer.OutcomeReadFailure, res.Outcome)
}

type blockingReader struct {
	release chan struct{}
	closed  chan struct{}
	r       io.Reader
}

func (b *blockingReader) Read(p []byte) (int, error) {
	<-b.release
	return b.r.Read(p)
}

func (b *blockingReader) Close() error {
	close(b.closed)
	return nil
}

func TestImportGuard(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	br := &blockingReader{
		release: make(chan struct{}),
		closed:  make(chan struct{}),
		r:       strings.NewReader(validCSV),
	}
	opened := make(chan struct{})

	done := svc.ImportAsync(ctx, "slow.csv", func() (io.ReadCloser, error) {
		close(opened)
		return br, nil
	})
	<-opened

	_, err := svc.Import(ctx, "other.csv", strings.NewReader(validCSV))
	assert.ErrorIs(t, err, ErrImportInProgress)
	second := <-svc.ImportAsync(ctx, "other.csv", nil)
	assert.ErrorIs(t, second.Err, ErrImportInProgress)

	close(br.release)
	outcome := <-done
	require.NoError(t, outcome.Err)
	assert.Equal(t, importer.OutcomeSuccess, outcome.Result.Outcome)
	<-br.closed

	_, more := <-done
	assert.False(t, more, "channel is closed after the outcome")

	_, err = svc.Import(ctx, "again.csv", strings.NewReader(validCSV))
	assert.NoError(t, err, "guard is released after completion")
	assert.Len(t, svc.Expenses(analytics.Criteria{}), 4)
}

type panicReader struct{ closed bool }

func (p *panicReader) Read([]byte) (int, error) { panic("reader exploded") }
func (p *panicReader) Close() error {
	p.closed = true
	return nil
}

func TestImportAsyncRecoversAndFinalizes(t *testing.T) {
	svc := newService(t)
	pr := &panicReader{}

	outcome := <-svc.ImportAsync(context.Background(), "x.csv", func() (io.ReadCloser, error) { return pr, nil })
	assert.Equal(t, importer.OutcomeReadFailure, outcome.Result.Outcome)
	assert.ErrorIs(t, outcome.Result.Err, importer.ErrFileRead)
	assert.True(t, pr.closed)

	outcome = <-svc.ImportAsync(context.Background(), "x.csv", func() (io.ReadCloser, error) {
		return nil, errors.New("permission denied")
	})
	assert.Equal(t, importer.OutcomeReadFailure, outcome.Result.Outcome)
	assert.ErrorIs(t, outcome.Result.Err, importer.ErrFileRead)

	_, err := svc.Import(context.Background(), "ok.csv", strings.NewReader(validCSV))
	assert.NoError(t, err)
}

func TestExportAndTemplate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.AddExpense(ctx, expense("Coffee", "3.5", "4", 2024, 1, 15))
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := svc.Export(ctx, &buf, exporter.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), "01/15/2024\tCoffee\t3.50\tFood")

	buf.Reset()
	require.NoError(t, svc.Template(ctx, &buf, exporter.FormatCSV))
	assert.Contains(t, buf.String(), "05/06/2024\tSample Expense\t50.00\tShopping")
}

func TestCategoriesBudgetsAndReports(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	pets, err := svc.AddCategory(ctx, core.Category{Name: "Pets"})
	require.NoError(t, err)
	_, err = svc.AddExpense(ctx, expense("Food bowl", "20", pets.ID, 2024, 3, 1))
	require.NoError(t, err)
	_, err = svc.AddExpense(ctx, expense("Food bowl", "20", pets.ID, 2024, 3, 1))
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, pets.ID), store.ErrCategoryInUse)

	require.NoError(t, svc.SetBudget(ctx, "2024-03", decimal.RequireFromString("50")))
	assert.ErrorIs(t, svc.SetBudget(ctx, "March", decimal.RequireFromString("50")), store.ErrInvalidBudget)

	ov := svc.Budget("2024-03")
	assert.True(t, ov.HasBudget)
	assert.Equal(t, "80", ov.Progress.String())

	r := svc.Report("2024-03")
	assert.Equal(t, 2, r.Count)
	assert.Len(t, svc.Duplicates("2024-03"), 1)
	assert.Empty(t, svc.Duplicates("2024-04"))

	require.NoError(t, svc.DeleteBudget(ctx, "2024-03"))
	assert.False(t, svc.Budget("2024-03").HasBudget)

	theme, err := svc.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.ThemeDark, theme)
	assert.Equal(t, core.ThemeDark, svc.Theme())
}

func TestSheetPushAndPull(t *testing.T) {
	sheet := memory.New(nil)
	svc := newService(t, WithSheet(sheet))
	ctx := context.Background()

	_, err := svc.Import(ctx, "in.csv", strings.NewReader(validCSV))
	require.NoError(t, err)

	ref, n, err := svc.PushToSheet(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "mem!A1:R3", ref)

	rows, _ := sheet.ReadRows(ctx)
	assert.Equal(t, exporter.Header, rows[0])

	other := newService(t, WithSheet(sheet))
	res, err := other.PullFromSheet(ctx)
	require.NoError(t, err)
	require.Equal(t, importer.OutcomeSuccess, res.Outcome, res.Summary())
	assert.Len(t, other.Expenses(analytics.Criteria{}), 2)
}

func TestSheetsDisabled(t *testing.T) {
	svc := newService(t)
	_, _, err := svc.PushToSheet(context.Background())
	assert.ErrorIs(t, err, ErrSheetsDisabled)
	_, err = svc.PullFromSheet(context.Background())
	assert.ErrorIs(t, err, ErrSheetsDisabled)
}

func TestNewFromBackendAndClose(t *testing.T) {
	res, err := backend.NewFactory(nil).CreateBackend(context.Background(), backend.Config{Type: backend.MemoryBackend})
	require.NoError(t, err)

	svc := NewFromBackend(res, nil)
	assert.Nil(t, svc.publisher)
	assert.Nil(t, svc.sheet)
	assert.NoError(t, svc.Close())

	failing := NewExpenseService(res.Store,
		WithCloser(func() error { return errors.New("a") }),
		WithCloser(func() error { return nil }),
		WithCloser(func() error { return errors.New("b") }))
	err = failing.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
}

func TestReportCacheFollowsRevision(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.AddExpense(ctx, expense("Coffee", "3.50", "4", 2024, 1, 15))
	require.NoError(t, err)

	first := svc.Report("2024-01")
	assert.Equal(t, 1, first.Count)
	assert.Equal(t, 1, svc.Report("2024-01").Count)
	assert.Equal(t, uint64(1), svc.ReportCache().Stats().Hits)

	_, err = svc.AddExpense(ctx, expense("Bus", "2.40", "3", 2024, 1, 16))
	require.NoError(t, err)
	assert.Equal(t, 2, svc.Report("2024-01").Count, "a mutation must invalidate cached reports")
	assert.Equal(t, "5.9", svc.Report("2024-01").Total.String())
}

func TestReportCallersCannotCorruptCache(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	e := expense("Coffee", "3.50", "4", 2024, 1, 15)
	e.Tags = []string{"morning"}
	_, err := svc.AddExpense(ctx, e)
	require.NoError(t, err)
	_, err = svc.AddExpense(ctx, e)
	require.NoError(t, err)

	first := svc.Report("2024-01")
	require.NotEmpty(t, first.MostExpensive)
	require.Len(t, first.Duplicates, 1)
	first.MostExpensive[0].Tags[0] = "changed"
	first.Duplicates[0][0].Description = "changed"

	again := svc.Report("2024-01")
	assert.Equal(t, "morning", again.MostExpensive[0].Tags[0])
	assert.Equal(t, "Coffee", again.Duplicates[0][0].Description)
	assert.Equal(t, uint64(1), svc.ReportCache().Stats().Hits)
}
