package qncorrections

import (
	"fmt"
	"sort"
	"strings"

	"go-hep.org/x/hep/hbook"
	"golang.org/x/exp/maps"
)

// HistogramList is a named collection of one-dimensional histograms. It is the
// in-memory form of calibration and QA files.
type HistogramList struct {
	hists map[string]*hbook.H1D
}

func NewHistogramList() *HistogramList {
	return &HistogramList{hists: make(map[string]*hbook.H1D)}
}

func (l *HistogramList) Add(name string, h *hbook.H1D) {
	h.Annotation()["name"] = name
	l.hists[name] = h
}

func (l *HistogramList) Get(name string) (*hbook.H1D, bool) {
	if l == nil {
		return nil, false
	}
	h, ok := l.hists[name]
	return h, ok
}

func (l *HistogramList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.hists)
}

// Names returns the histogram names in lexical order.
func (l *HistogramList) Names() []string {
	if l == nil {
		return nil
	}
	names := maps.Keys(l.hists)
	sort.Strings(names)
	return names
}

// Labels returns the distinct run labels found in calibration names.
func (l *HistogramList) Labels() []string {
	set := make(map[string]struct{})
	for _, name := range l.Names() {
		if i := strings.IndexByte(name, '.'); i > 0 {
			set[name[:i]] = struct{}{}
		}
	}
	labels := maps.Keys(set)
	sort.Strings(labels)
	return labels
}

// MergeHistogramLists sums lists cell by cell. Histograms present in only some
// lists are copied. The operation is associative and commutative, which is
// what sharded calibration passes rely on.
func MergeHistogramLists(lists ...*HistogramList) (*HistogramList, error) {
	merged := NewHistogramList()
	for _, l := range lists {
		if l == nil {
			continue
		}
		for _, name := range l.Names() {
			src := l.hists[name]
			dst, ok := merged.hists[name]
			if !ok {
				merged.Add(name, cloneH1D(src))
				continue
			}
			if dst.Len() != src.Len() {
				return nil, &ErrCalibrationShape{Name: name, Expected: dst.Len(), Found: src.Len()}
			}
			if dst.XMin() != src.XMin() || dst.XMax() != src.XMax() {
				return nil, fmt.Errorf("calibration histogram %q spans [%v, %v), expected [%v, %v)",
					name, src.XMin(), src.XMax(), dst.XMin(), dst.XMax())
			}
			merged.hists[name] = hbook.AddH1D(dst, src)
		}
	}
	return merged, nil
}

func newCellHistogram(name string, nCells int) *hbook.H1D {
	h := hbook.NewH1D(nCells, 0, float64(nCells))
	h.Annotation()["name"] = name
	return h
}

// cloneH1D copies the whole distribution, outflows and name included.
func cloneH1D(src *hbook.H1D) *hbook.H1D {
	return src.Clone()
}

func cellValue(h *hbook.H1D, cell int) float64 {
	return h.Binning.Bins[cell].SumW()
}

// quantity describes one accumulated sum of a step: width cells per event
// class bin (one per harmonic, channel or group).
type quantity struct {
	name  string
	width int
}

// binAccumulator keeps the linear sums of one step for one run label.
type binAccumulator struct {
	nBins      int
	quantities []quantity
	hists      []*hbook.H1D
}

func newBinAccumulator(prefix string, nBins int, quantities []quantity) *binAccumulator {
	a := &binAccumulator{nBins: nBins, quantities: quantities, hists: make([]*hbook.H1D, len(quantities))}
	for i, q := range quantities {
		a.hists[i] = newCellHistogram(prefix+q.name, nBins*q.width)
	}
	return a
}

// loadBinAccumulator copies the histograms named prefix+quantity out of list.
// It returns nil when none is present and an error when only some are, or when
// their cell count does not match.
func loadBinAccumulator(list *HistogramList, prefix string, nBins int, quantities []quantity) (*binAccumulator, error) {
	found := 0
	for _, q := range quantities {
		if _, ok := list.Get(prefix + q.name); ok {
			found++
		}
	}
	if found == 0 {
		return nil, nil
	}
	a := &binAccumulator{nBins: nBins, quantities: quantities, hists: make([]*hbook.H1D, len(quantities))}
	for i, q := range quantities {
		name := prefix + q.name
		h, ok := list.Get(name)
		if !ok {
			return nil, &ErrCalibrationShape{Name: name, Missing: true}
		}
		if h.Len() != nBins*q.width {
			return nil, &ErrCalibrationShape{Name: name, Expected: nBins * q.width, Found: h.Len()}
		}
		if h.XMin() != 0 || h.XMax() != float64(h.Len()) {
			return nil, fmt.Errorf("calibration histogram %q spans [%v, %v), expected [0, %d)", name, h.XMin(), h.XMax(), h.Len())
		}
		a.hists[i] = cloneH1D(h)
		a.hists[i].Annotation()["name"] = name
	}
	return a, nil
}

func (a *binAccumulator) fill(quantity, bin, sub int, w float64) {
	cell := bin*a.quantities[quantity].width + sub
	a.hists[quantity].Fill(float64(cell)+0.5, w)
}

// add sums the statistics of o, which shares the layout of a, into a.
func (a *binAccumulator) add(o *binAccumulator) {
	for i := range a.hists {
		a.hists[i] = hbook.AddH1D(a.hists[i], o.hists[i])
	}
}

func (a *binAccumulator) sum(quantity, bin, sub int) float64 {
	return cellValue(a.hists[quantity], bin*a.quantities[quantity].width+sub)
}

// exportTo renames the histograms with prefix and adds copies to list.
func (a *binAccumulator) exportTo(list *HistogramList, prefix string) {
	for i, q := range a.quantities {
		list.Add(prefix+q.name, cloneH1D(a.hists[i]))
	}
}

func (a *binAccumulator) String() string {
	names := make([]string, len(a.quantities))
	for i, q := range a.quantities {
		names[i] = q.name
	}
	return fmt.Sprintf("accumulator{bins: %d, quantities: %v}", a.nBins, names)
}
