package memberrepo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/zamalek-residents/member-registry/internal/domain"
	memberrepoport "github.com/zamalek-residents/member-registry/internal/ports/out/memberrepo"
)

func TestOpen_BootstrapsMissingFileWithSampleMembers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "members.xlsx")

	repo, err := Open(path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	ms, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SampleMembers(), ms)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, domain.Labels, rows[0])
}

func TestOpen_LeavesExistingFileAlone(t *testing.T) {
	repo := newEmptyRepo(t)
	before, err := os.ReadFile(repo.Path())
	require.NoError(t, err)

	reopened, err := Open(repo.Path())
	require.NoError(t, err)

	after, err := os.ReadFile(reopened.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	ms, err := reopened.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestRepo_FailedSaveLeavesPreviousFileIntact(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(filepath.Join(t.TempDir(), "members.xlsx"))
	require.NoError(t, err)
	before, err := os.ReadFile(repo.Path())
	require.NoError(t, err)

	repo.rename = func(string, string) error { return errors.New("disk full") }

	_, err = repo.Create(ctx, domain.Member{Name: "New", MembershipNumber: 2001})
	var se *memberrepoport.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "save", se.Op)

	after, err := os.ReadFile(repo.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(filepath.Dir(repo.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file must be removed")

	repo.rename = os.Rename
	ms, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ms, 3)
}

func TestRepo_ReadsForeignWorkbooks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.xlsx")
	f := excelize.NewFile()
	// Columns shuffled, sheet not named Members, values stored as text.
	rows := [][]any{
		{"حي", "رقم م", "اسم العضو", "عضوية", "شقة", "عمارة", "المبلغ المدفوع", "تاريخ التسجيل"},
		{"  الزمالك  ", "7", " سارة ", "1500", "3.0", "2", "-20", "2024-05-01 00:00:00"},
		{"", "", "", "", "", "", "", ""},
		{"الزمالك", "9", "Omar", "abc", "", "1", "99.5", "not a date"},
		{"الزمالك", "11", "Nadia", "1600", "4", "5", "100", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ctx := context.Background()
	repo, err := Open(path)
	require.NoError(t, err)

	ms, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, ms, 3)
	assert.Equal(t, domain.Member{
		ID: 7, Name: "سارة", MembershipNumber: 1500, UnitNumber: 3, BuildingNumber: 2,
		District: "الزمالك", AmountPaid: 0, RegistrationDate: "2024-05-01",
	}, ms[0])
	assert.Equal(t, domain.Member{
		ID: 9, Name: "Omar", MembershipNumber: 0, UnitNumber: 0, BuildingNumber: 1,
		District: "الزمالك", AmountPaid: 99.5, RegistrationDate: "",
	}, ms[1])
	assert.Equal(t, "2024-01-15", ms[2].RegistrationDate)

	// Rewriting the file keeps the date read from a native date cell.
	_, err = repo.Create(ctx, domain.Member{Name: "New", MembershipNumber: 2001, RegistrationDate: "2025-06-01"})
	require.NoError(t, err)
	got, err := repo.GetByID(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", got.RegistrationDate)
}

func TestRepo_RowWithZeroIDStillOwnsItsNumber(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "members.xlsx")
	f := excelize.NewFile()
	rows := [][]any{
		{"رقم م", "اسم العضو", "عضوية", "شقة", "عمارة", "حي", "المبلغ المدفوع", "تاريخ التسجيل"},
		{"not a number", "Hana", "1600", "1", "1", "الزمالك", "0", "2024-01-01"},
		{"4", "Karim", "1700", "2", "2", "الزمالك", "0", "2024-01-01"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	repo, err := Open(path)
	require.NoError(t, err)

	_, err = repo.Create(ctx, domain.Member{Name: "Dup", MembershipNumber: 1600})
	assert.ErrorIs(t, err, memberrepoport.ErrMembershipNumberTaken)

	err = repo.Update(ctx, domain.Member{ID: 4, Name: "Karim", MembershipNumber: 1600})
	assert.ErrorIs(t, err, memberrepoport.ErrMembershipNumberTaken)
}

func TestRepo_CorruptFileSurfacesStorageError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "members.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))

	repo, err := Open(path)
	require.NoError(t, err)

	err = repo.Ping(context.Background())
	var se *memberrepoport.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "load", se.Op)

	_, err = repo.Stats(context.Background())
	assert.ErrorAs(t, err, &se)
}
