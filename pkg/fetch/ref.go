package fetch

import (
	"context"
	"fmt"

	git "gopkg.in/src-d/go-git.v4"
	"gopkg.in/src-d/go-git.v4/config"
	"gopkg.in/src-d/go-git.v4/plumbing"
	"gopkg.in/src-d/go-git.v4/storage/memory"
)

// GitResolveRef resolves a branch or tag name (or "" for the default branch)
// to a commit SHA via a remote ls-remote-equivalent call, without cloning
// anything to disk — the resolver needs this to pin an identity before
// deciding whether a full fetch is even necessary (spec §4.1: "git with rev
// pinned ⇒ identity is that commit; otherwise resolve the ref to a commit").
func GitResolveRef(ctx context.Context, url, ref string) (string, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("listing refs for %s: %w", url, err)
	}

	if ref == "" {
		return resolveHEAD(refs, url)
	}

	candidates := []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(ref),
		plumbing.NewTagReferenceName(ref),
		plumbing.ReferenceName(ref),
	}
	for _, cand := range candidates {
		if hash, ok := findRef(refs, cand); ok {
			return hash, nil
		}
	}
	for _, r := range refs {
		if r.Name().Short() == ref && r.Type() == plumbing.HashReference {
			return r.Hash().String(), nil
		}
	}
	return "", fmt.Errorf("ref %q not found in %s", ref, url)
}

func resolveHEAD(refs []*plumbing.Reference, url string) (string, error) {
	for _, r := range refs {
		if r.Name() != plumbing.HEAD {
			continue
		}
		if r.Type() == plumbing.HashReference {
			return r.Hash().String(), nil
		}
		if hash, ok := findRef(refs, r.Target()); ok {
			return hash, nil
		}
	}
	return "", fmt.Errorf("could not resolve HEAD for %s", url)
}

func findRef(refs []*plumbing.Reference, name plumbing.ReferenceName) (string, bool) {
	for _, r := range refs {
		if r.Name() == name && r.Type() == plumbing.HashReference {
			return r.Hash().String(), true
		}
	}
	return "", false
}
