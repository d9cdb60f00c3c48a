package domain

import "time"

// Group represents a GitLab group holding student repositories
type Group struct {
	ID       int
	Name     string
	FullPath string
}

// Project represents a single repository inside a GitLab group
type Project struct {
	ID            int
	Name          string
	Path          string
	HTTPURLToRepo string
	SSHURLToRepo  string
	DefaultBranch string
}

// Checkout represents a local clone of a student repository
type Checkout struct {
	Assignment string
	Group      string
	Project    string
	Path       string
	Branch     string
	ClonedAt   time.Time
}
