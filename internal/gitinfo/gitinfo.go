// Package gitinfo reads repository metadata for the docs directory.
package gitinfo

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	ferrors "git.home.luguber.info/inful/docnav/internal/foundation/errors"
	"git.home.luguber.info/inful/docnav/internal/logfields"
	"git.home.luguber.info/inful/docnav/internal/site"
)

// Info describes the repository containing a directory.
type Info struct {
	Root      string // worktree root
	RemoteURL string // raw origin URL, empty without an origin remote
	RepoURL   string // browsable https URL derived from RemoteURL
	Branch    string
	Commit    string
}

// Detect opens the repository containing dir, searching parent directories.
// It returns nil, nil when dir is not inside a git repository.
func Detect(dir string) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, nil
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "failed to open repository").Warning().
			WithContext("dir", dir).
			Build()
	}

	info := &Info{}
	if wt, wtErr := repo.Worktree(); wtErr == nil {
		info.Root = wt.Filesystem.Root()
	}

	remote, err := repo.Remote(git.DefaultRemoteName)
	switch {
	case errors.Is(err, git.ErrRemoteNotFound):
	case err != nil:
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "failed to read origin remote").Warning().Build()
	default:
		if urls := remote.Config().URLs; len(urls) > 0 {
			info.RemoteURL = urls[0]
			info.RepoURL = RepoURL(urls[0])
		}
	}

	head, err := repo.Head()
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// Fresh repository without commits.
	case err != nil:
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "failed to resolve HEAD").Warning().Build()
	default:
		info.Commit = head.Hash().String()
		if head.Name().IsBranch() {
			info.Branch = head.Name().Short()
		}
	}
	return info, nil
}

// RepoURL converts a clone URL into the https URL of the repository web page.
// SSH forms (git@host:owner/repo.git, ssh://git@host/owner/repo.git) are
// rewritten, credentials and the .git suffix dropped. Local paths yield "".
func RepoURL(remote string) string {
	remote = strings.TrimSpace(remote)
	if remote == "" || strings.Contains(remote, `\`) {
		return ""
	}

	// scp-like syntax: [user@]host:path
	if !strings.Contains(remote, "://") {
		at := strings.Index(remote, "@")
		colon := strings.Index(remote, ":")
		if colon <= 0 || colon < at || strings.HasPrefix(remote, "/") {
			return ""
		}
		host := remote[at+1 : colon]
		path := strings.TrimPrefix(remote[colon+1:], "/")
		return join(host, path)
	}

	u, err := url.Parse(remote)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "http", "https", "ssh", "git", "git+ssh":
	default:
		return ""
	}
	return join(u.Hostname(), strings.TrimPrefix(u.Path, "/"))
}

func join(host, path string) string {
	path = strings.TrimSuffix(strings.TrimSuffix(path, "/"), ".git")
	if host == "" || path == "" {
		return ""
	}
	return "https://" + host + "/" + path
}

// Apply fills themeConfig.repo from the repository containing dir when it
// is not already set. It returns a copy of s and whether the repo was filled.
// Git errors are logged and leave s unchanged.
func Apply(s *site.Site, dir string) (*site.Site, bool) {
	if s.ThemeConfig.Repo != "" {
		return s, false
	}
	info, err := Detect(dir)
	if err != nil {
		slog.Warn("Repository detection failed", logfields.Path(dir), logfields.Error(err))
		return s, false
	}
	if info == nil || info.RepoURL == "" {
		return s, false
	}
	out := *s
	out.ThemeConfig.Repo = info.RepoURL
	slog.Debug("Detected repository", slog.String("repo", info.RepoURL), slog.String("branch", info.Branch))
	return &out, true
}
