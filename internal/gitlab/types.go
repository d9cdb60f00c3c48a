package gitlab

// gitlabGroup is the wire representation of a GitLab group
type gitlabGroup struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	FullPath string `json:"full_path"`
}

// gitlabProject is the wire representation of a GitLab project
type gitlabProject struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Path          string `json:"path"`
	HTTPURLToRepo string `json:"http_url_to_repo"`
	SSHURLToRepo  string `json:"ssh_url_to_repo"`
	DefaultBranch string `json:"default_branch"`
}
