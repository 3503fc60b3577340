// Package fetch implements the three package-source backends (spec §4.2):
// path, git, and registry/tarball. Each shares the contract
// fetch(resolved-source) → normalized tree on disk, where "normalized" means
// lexical file ordering (left to pkg/digest at hash time), VCS metadata
// excluded, file modes restricted to {regular, regular-executable}, and
// symlink targets preserved verbatim. Line endings are never rewritten.
//
// Grounded on gh-aw's workflow-download helpers (stage to a temp directory,
// verify, move into place) for the tarball path, and on its git-ref
// resolution helpers (pkg/gitutil) for recognizing commit SHAs; the git
// clone itself is grounded on gopkg.in/src-d/go-git.v4's documented
// PlainClone/Worktree.Checkout usage, the only git library in the pack.
package fetch

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/copy"
	git "gopkg.in/src-d/go-git.v4"
	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/digest"
	"github.com/botpack/botpack/pkg/gitutil"
	"github.com/botpack/botpack/pkg/httputil"
	"github.com/botpack/botpack/pkg/logger"
)

var fetchLog = logger.New("fetch")

var vcsDirNames = map[string]bool{".git": true, ".hg": true, ".svn": true}

// Path fetches a local directory tree into destDir, excluding VCS metadata
// and never following a symlink that points outside the source tree.
func Path(srcAbs, destDir string) error {
	if info, err := os.Stat(srcAbs); err != nil || !info.IsDir() {
		if err != nil {
			return boterrors.New(boterrors.KindFetch, srcAbs, err)
		}
		return boterrors.New(boterrors.KindFetch, srcAbs, fmt.Errorf("not a directory"))
	}

	err := copy.Copy(srcAbs, destDir, copy.Options{
		Skip: func(srcinfo os.FileInfo, src, dest string) (bool, error) {
			return vcsDirNames[srcinfo.Name()] && srcinfo.IsDir(), nil
		},
		OnSymlink: func(src string) copy.SymlinkAction {
			target, readErr := os.Readlink(src)
			if readErr != nil {
				return copy.Skip
			}
			if filepath.IsAbs(target) && !strings.HasPrefix(target, srcAbs) {
				return copy.Skip
			}
			return copy.Shallow
		},
	})
	if err != nil {
		return boterrors.New(boterrors.KindFetch, srcAbs, err)
	}
	return nil
}

// Git shallow-clones url at commit rev into destDir and strips .git/. rev
// must already be a resolved commit SHA (ref-to-commit resolution is the
// resolver's job, spec §4.1); this function only checks out what it's told.
func Git(ctx context.Context, url, rev, destDir string) error {
	if !gitutil.IsFullSHA(rev) {
		return boterrors.New(boterrors.KindFetch, url, fmt.Errorf("git fetch requires a resolved commit SHA, got %q", rev))
	}

	fetchLog.Printf("cloning %s at %s", url, rev)
	if err := cloneAndCheckout(ctx, url, rev, destDir, 1); err != nil {
		// A shallow clone (or one checked out to the default branch tip) may
		// not contain an older pinned commit; the clone can succeed while the
		// checkout still fails. Either way, start over with full history.
		fetchLog.Printf("shallow clone of %s at %s failed (%v); retrying with full history", url, rev, err)
		if rmErr := os.RemoveAll(destDir); rmErr != nil {
			return boterrors.New(boterrors.KindFetch, url, rmErr)
		}
		if err := cloneAndCheckout(ctx, url, rev, destDir, 0); err != nil {
			if gitutil.IsAuthError(err.Error()) {
				return boterrors.New(boterrors.KindFetch, url, err).WithHint("check your git credentials for this host")
			}
			return boterrors.New(boterrors.KindFetch, url, err)
		}
	}

	if err := os.RemoveAll(filepath.Join(destDir, ".git")); err != nil {
		return boterrors.New(boterrors.KindFetch, url, err)
	}
	return nil
}

// cloneAndCheckout clones url into destDir — shallow when depth > 0, full
// history otherwise — and checks out rev. destDir must not already exist.
func cloneAndCheckout(ctx context.Context, url, rev, destDir string, depth int) error {
	repo, err := git.PlainCloneContext(ctx, destDir, false, &git.CloneOptions{
		URL:   url,
		Depth: depth,
	})
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(rev)}); err != nil {
		return fmt.Errorf("checking out %s: %w", rev, err)
	}
	return nil
}

// Tarball downloads a .tar.gz archive from url, verifies it against
// integrity when non-empty, and extracts it into destDir.
func Tarball(ctx context.Context, client *httputil.Client, url, integrity, destDir string) error {
	req, err := client.NewRequest(http.MethodGet, url)
	if err != nil {
		return boterrors.New(boterrors.KindFetch, url, err)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/gzip, application/octet-stream, */*")

	resp, err := client.Do(req)
	if err != nil {
		return boterrors.New(boterrors.KindFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := httputil.ReadResponseBody(resp)
		return boterrors.New(boterrors.KindFetch, url, httputil.FormatHTTPError(resp.StatusCode, body, "tarball fetch"))
	}

	tmpFile, err := os.CreateTemp("", "botpack-tarball-*.tar.gz")
	if err != nil {
		return boterrors.New(boterrors.KindFetch, url, err)
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return boterrors.New(boterrors.KindFetch, url, err)
	}

	if integrity != "" {
		if err := verifyFileIntegrity(tmpFile.Name(), integrity); err != nil {
			return boterrors.New(boterrors.KindFetch, url, err)
		}
	}

	if _, err := tmpFile.Seek(0, io.SeekStart); err != nil {
		return boterrors.New(boterrors.KindFetch, url, err)
	}
	if err := extractTarGz(tmpFile, destDir); err != nil {
		return boterrors.New(boterrors.KindFetch, url, err)
	}
	return nil
}

func verifyFileIntegrity(path, integrity string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	verifier := digest.Digest(integrity).Verifier()
	if _, err := io.Copy(verifier, f); err != nil {
		return err
	}
	if !verifier.Verified() {
		return fmt.Errorf("tarball integrity mismatch: expected %s", integrity)
	}
	return nil
}

func extractTarGz(r io.Reader, destDir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		rel := filepath.Clean(hdr.Name)
		if rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		target := filepath.Join(destDir, rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			mode := fs.FileMode(0o644)
			if hdr.FileInfo().Mode().Perm()&0o111 != 0 {
				mode = 0o755
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		}
	}
}
