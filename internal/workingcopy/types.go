package workingcopy

// Computer identifies who is working in a repository and where it is pushed.
type Computer struct {
	Name      string `json:"name" yaml:"name"`
	Email     string `json:"email" yaml:"email"`
	RemoteURL string `json:"remoteUrl" yaml:"remoteUrl"`
}

// Author is the commit author identity.
type Author struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// FileDiff is the unified diff of one file, within a commit or pending in the worktree.
type FileDiff struct {
	File    string `json:"file" yaml:"file"`
	Content string `json:"content" yaml:"content"`
}

// CommitRecord describes one commit and its changes relative to the commit it was compared with.
type CommitRecord struct {
	ClientHash string     `json:"clientHash" yaml:"clientHash"`
	Author     Author     `json:"author" yaml:"author"`
	Message    string     `json:"message" yaml:"message"`
	Timestamp  int64      `json:"timestamp" yaml:"timestamp"`
	Files      []string   `json:"files" yaml:"files"`
	Diff       []FileDiff `json:"diff" yaml:"diff"`
}

// WorkingCopy is the full snapshot of a repository's local state.
type WorkingCopy struct {
	ComputerID      string         `json:"computerId" yaml:"computerId"`
	BranchName      string         `json:"branchName" yaml:"branchName"`
	RemoteURL       string         `json:"remoteUrl" yaml:"remoteUrl"`
	UntrackedFiles  []string       `json:"untrackedFiles" yaml:"untrackedFiles"`
	WorkingTreeDiff []FileDiff     `json:"workingTreeDiff" yaml:"workingTreeDiff"`
	UnpushedCommits []CommitRecord `json:"unpushedCommits" yaml:"unpushedCommits"`
	HistoryCommits  []CommitRecord `json:"historyCommits" yaml:"historyCommits"`
	ClientDir       string         `json:"clientDir" yaml:"clientDir"`
	FileStats       map[string]any `json:"fileStats" yaml:"fileStats"`
}

// Parameters carries caller-supplied values copied into the working copy record.
type Parameters struct {
	ComputerID string `json:"computerId" yaml:"computerId"`
}
