// Package memberrepo is the whole-file implementation of memberrepo.Repository.
// The member list lives in a single spreadsheet. Every read loads the whole
// workbook; every write rewrites it and atomically replaces the old file.
// There is no locking between concurrent writers: the last rename wins.
package memberrepo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/zamalek-residents/member-registry/internal/domain"
	"github.com/zamalek-residents/member-registry/internal/ports/out/memberrepo"
)

// SheetName is the sheet written by saveAll. Files whose first sheet has
// another name are still readable.
const SheetName = "Members"

// Repo is a spreadsheet implementation of memberrepo.Repository.
type Repo struct {
	path string

	// rename is os.Rename outside of tests.
	rename func(oldpath, newpath string) error
}

// Open returns a Repo backed by the workbook at path, creating it with the
// sample members when it does not exist yet.
func Open(path string) (*Repo, error) {
	if path == "" {
		return nil, errors.New("spreadsheet path is empty")
	}
	r := &Repo{path: path, rename: os.Rename}
	if _, err := r.Bootstrap(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path is the backing file.
func (r *Repo) Path() string { return r.path }

// Bootstrap creates the backing file with domain.SampleMembers when it is
// missing. It reports whether the file was created.
func (r *Repo) Bootstrap() (bool, error) {
	_, err := os.Stat(r.path)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return false, memberrepo.Storage("stat", err)
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, memberrepo.Storage("bootstrap", err)
		}
	}
	if err := r.saveAll(domain.SampleMembers()); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Member, error) {
	_ = ctx
	return r.loadAll()
}

func (r *Repo) GetByID(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	_ = ctx
	ms, err := r.loadAll()
	if err != nil {
		return domain.Member{}, err
	}
	if i := indexByID(ms, id); i >= 0 {
		return ms[i], nil
	}
	return domain.Member{}, memberrepo.ErrNotFound
}

func (r *Repo) GetByMembershipNumber(ctx context.Context, number int) (domain.Member, error) {
	_ = ctx
	ms, err := r.loadAll()
	if err != nil {
		return domain.Member{}, err
	}
	for _, m := range ms {
		if m.MembershipNumber == number {
			return m, nil
		}
	}
	return domain.Member{}, memberrepo.ErrNotFound
}

func (r *Repo) SearchByName(ctx context.Context, query string) ([]domain.Member, error) {
	_ = ctx
	ms, err := r.loadAll()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Member, 0)
	for _, m := range ms {
		if domain.MatchesName(m.Name, query) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *Repo) Create(ctx context.Context, m domain.Member) (domain.Member, error) {
	_ = ctx
	ms, err := r.loadAll()
	if err != nil {
		return domain.Member{}, err
	}
	if _, taken := numberOwner(ms, m.MembershipNumber); taken {
		return domain.Member{}, memberrepo.ErrMembershipNumberTaken
	}

	m.ID = memberrepo.NextID(ms)
	m = normalize(m)
	if err := r.saveAll(append(ms, m)); err != nil {
		return domain.Member{}, err
	}
	return m, nil
}

func (r *Repo) Update(ctx context.Context, m domain.Member) error {
	_ = ctx
	ms, err := r.loadAll()
	if err != nil {
		return err
	}
	i := indexByID(ms, m.ID)
	if i < 0 {
		return memberrepo.ErrNotFound
	}
	if owner, taken := numberOwner(ms, m.MembershipNumber); taken && owner != m.ID {
		return memberrepo.ErrMembershipNumberTaken
	}
	ms[i] = normalize(m)
	return r.saveAll(ms)
}

func (r *Repo) Delete(ctx context.Context, id domain.MemberID) error {
	_ = ctx
	ms, err := r.loadAll()
	if err != nil {
		return err
	}
	i := indexByID(ms, id)
	if i < 0 {
		return memberrepo.ErrNotFound
	}
	return r.saveAll(append(ms[:i], ms[i+1:]...))
}

func (r *Repo) Stats(ctx context.Context) (domain.Stats, error) {
	_ = ctx
	ms, err := r.loadAll()
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.ComputeStats(ms), nil
}

// Ping loads the workbook; a file that cannot be read or parsed is unreachable.
func (r *Repo) Ping(ctx context.Context) error {
	_ = ctx
	_, err := r.loadAll()
	return err
}

// loadAll reads every member from the workbook, in file order.
func (r *Repo) loadAll() ([]domain.Member, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, memberrepo.Storage("load", err)
	}
	defer f.Close()

	sheet := SheetName
	if idx, err := f.GetSheetIndex(SheetName); err != nil || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, memberrepo.Storage("load", errors.New("workbook has no sheets"))
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, memberrepo.Storage("load", err)
	}
	if len(rows) == 0 {
		return []domain.Member{}, nil
	}

	columns := columnIndex(rows[0])
	out := make([]domain.Member, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		cells := make([]any, len(columns))
		for i, c := range columns {
			if c >= 0 && c < len(row) {
				cells[i] = row[c]
			}
		}
		if raw, ok := cells[dateColumn].(string); ok {
			cells[dateColumn] = dateCell(raw)
		}
		out = append(out, domain.DecodeRow(cells))
	}
	return out, nil
}

// saveAll serializes ms into a fresh workbook next to the target and renames
// it into place. On failure the previous file is left untouched.
func (r *Repo) saveAll(ms []domain.Member) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return memberrepo.Storage("save", err)
	}
	header := make([]any, len(domain.Labels))
	for i, l := range domain.Labels {
		header[i] = l
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return memberrepo.Storage("save", err)
	}
	for i, m := range ms {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return memberrepo.Storage("save", err)
		}
		row := m.Row()
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return memberrepo.Storage("save", err)
		}
	}

	tmp := filepath.Join(filepath.Dir(r.path), fmt.Sprintf(".%s.%s.tmp", filepath.Base(r.path), uuid.NewString()))
	if err := writeWorkbook(f, tmp); err != nil {
		_ = os.Remove(tmp)
		return memberrepo.Storage("save", err)
	}
	if err := r.rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return memberrepo.Storage("save", err)
	}
	return nil
}

func writeWorkbook(f *excelize.File, path string) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := f.Write(out); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// columnIndex maps each canonical label to its column in header. When the
// header carries none of the labels the layout is taken to be positional.
func columnIndex(header []string) []int {
	idx := make([]int, len(domain.Labels))
	found := false
	for i, label := range domain.Labels {
		idx[i] = -1
		for c, h := range header {
			if domain.NormalizeText(h) == label {
				idx[i] = c
				found = true
				break
			}
		}
	}
	if !found {
		for i := range idx {
			idx[i] = i
		}
	}
	return idx
}

var dateColumn = slices.Index(domain.Labels, domain.LabelRegistrationDate)

// dateCell turns a raw date cell into a time when it holds an Excel date
// serial. Text dates are returned unchanged.
func dateCell(raw string) any {
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || serial <= 0 {
		return raw
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return raw
	}
	return t
}

func blankRow(row []string) bool {
	for _, c := range row {
		if domain.NormalizeText(c) != "" {
			return false
		}
	}
	return true
}

func normalize(m domain.Member) domain.Member {
	m.Name = domain.NormalizeText(m.Name)
	m.District = domain.NormalizeText(m.District)
	m.AmountPaid = domain.CoerceAmount(m.AmountPaid)
	return m
}

func indexByID(ms []domain.Member, id domain.MemberID) int {
	for i, m := range ms {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// numberOwner returns the ID of the member holding number.
func numberOwner(ms []domain.Member, number int) (domain.MemberID, bool) {
	for _, m := range ms {
		if m.MembershipNumber == number {
			return m.ID, true
		}
	}
	return 0, false
}
