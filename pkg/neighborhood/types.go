package neighborhood

// Word is a query infix identified by its start offset.
type Word struct {
	Offset int
	Text   string
}

// Neighbor is a candidate word and its total substitution score.
type Neighbor struct {
	Word  string
	Score int
}

// Result holds the neighborhood of one query infix.
type Result struct {
	Infix     string
	Offset    int
	Neighbors []Neighbor
}

// Stats counts search work. Values are summed across workers.
type Stats struct {
	Words   int // infixes expanded
	Reused  int // infixes answered from a worker memo
	Visited int // search nodes entered
	Pruned  int // branches cut by the bound
	Emitted int // neighbors produced
}

func (s *Stats) add(o Stats) {
	s.Words += o.Words
	s.Reused += o.Reused
	s.Visited += o.Visited
	s.Pruned += o.Pruned
	s.Emitted += o.Emitted
}

// Report is the outcome of an Engine run.
type Report struct {
	Results []Result
	Stats   Stats
	Workers int
}
