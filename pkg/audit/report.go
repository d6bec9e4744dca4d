package audit

// BreachResult is an entry whose password hash was found in its bucket.
type BreachResult struct {
	Path     string `json:"path" yaml:"path"`
	Password string `json:"password" yaml:"password"`
	Count    int64  `json:"count" yaml:"count"`
}

// Token is one element of the pattern sequence the estimator matched.
type Token struct {
	Token   string `json:"token" yaml:"token"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

// Strength is the estimator output for a password.
type Strength struct {
	// Score goes from 0 (trivial) to 4 (strong).
	Score            int     `json:"score" yaml:"score"`
	Guesses          float64 `json:"guesses" yaml:"guesses"`
	Entropy          float64 `json:"entropy" yaml:"entropy"`
	CrackTime        float64 `json:"crackTime" yaml:"crackTime"`
	CrackTimeDisplay string  `json:"crackTimeDisplay" yaml:"crackTimeDisplay"`
	Sequence         []Token `json:"sequence" yaml:"sequence"`
}

type WeaknessResult struct {
	Path     string   `json:"path" yaml:"path"`
	Password string   `json:"password" yaml:"password"`
	Strength Strength `json:"strength" yaml:"strength"`
}

// DuplicateGroup lists, in input order, the paths sharing one password. It
// always has at least two paths.
type DuplicateGroup []string

// Report is the combined result of one audit run.
type Report struct {
	ID         string           `json:"id" yaml:"id"`
	Tested     int              `json:"tested" yaml:"tested"`
	Breached   []BreachResult   `json:"breached" yaml:"breached"`
	Weak       []WeaknessResult `json:"weak" yaml:"weak"`
	Duplicated []DuplicateGroup `json:"duplicated" yaml:"duplicated"`
	// StrengthSkipped is set when the estimator was not available. Weak is
	// then empty because the check did not run, not because nothing is weak.
	StrengthSkipped bool `json:"strengthSkipped" yaml:"strengthSkipped"`
}

// Clean is true when nothing was breached, weak or duplicated.
func (r *Report) Clean() bool {
	return len(r.Breached) == 0 && len(r.Weak) == 0 && len(r.Duplicated) == 0
}
