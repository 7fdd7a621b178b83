package attestation

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

// Environment keys recorded in every link
const (
	EnvInvocation = "invocation_id"
	EnvWorkdir    = "workdir"
	EnvHostname   = "hostname"
	EnvPlatform   = "platform"
	EnvArch       = "arch"
	EnvVersion    = "linkrun_version"
	EnvGitCommit  = "git_commit"
	EnvGitBranch  = "git_branch"
	EnvGitDirty   = "git_dirty"
)

// GatherEnvironment collects best-effort metadata about where a step ran.
// Each call gets a fresh invocation id.
// Missing values are omitted rather than failing the step.
func GatherEnvironment(runDir, version string) map[string]string {
	env := map[string]string{
		EnvInvocation: uuid.New().String(),
		EnvPlatform:   runtime.GOOS,
		EnvArch:       runtime.GOARCH,
	}
	if version != "" {
		env[EnvVersion] = version
	}

	workdir := runDir
	if workdir == "" {
		workdir, _ = os.Getwd()
	}
	if abs, err := filepath.Abs(workdir); err == nil {
		workdir = abs
	}
	if workdir != "" {
		env[EnvWorkdir] = filepath.ToSlash(workdir)
	}

	if hostname, err := os.Hostname(); err == nil {
		env[EnvHostname] = hostname
	}

	if info := gatherGitInfo(workdir); info != nil {
		env[EnvGitCommit] = info.Commit
		if info.Branch != "" {
			env[EnvGitBranch] = info.Branch
		}
		if info.Dirty {
			env[EnvGitDirty] = "true"
		} else {
			env[EnvGitDirty] = "false"
		}
	}
	return env
}

type gitInfo struct {
	Commit string
	Branch string
	Dirty  bool
}

// gatherGitInfo returns nil when dir is not inside a git work tree or git
// is unavailable.
func gatherGitInfo(dir string) *gitInfo {
	commit, err := git(dir, "rev-parse", "HEAD")
	if err != nil || commit == "" {
		return nil
	}

	info := &gitInfo{Commit: commit}
	if branch, err := git(dir, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		info.Branch = branch
	}
	if status, err := git(dir, "status", "--porcelain"); err == nil {
		info.Dirty = status != ""
	}
	return info
}

func git(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
