package service_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prehisle/ndr/internal/config"
	"github.com/prehisle/ndr/internal/service"
	"github.com/prehisle/ndr/internal/store"
	"github.com/prehisle/ndr/internal/tree"
)

// tempService opens a throwaway SQLite tree for examples.
func tempService() (service.Service, func()) {
	dir, err := os.MkdirTemp("", "ndr-example-*")
	if err != nil {
		panic(err)
	}
	s, err := store.Open(filepath.Join(dir, "ndr.db"))
	if err != nil {
		panic(err)
	}
	if err := s.Init(); err != nil {
		panic(err)
	}
	svc := tree.Open(s, &config.Config{})
	cleanup := func() {
		svc.Close()
		os.RemoveAll(dir)
	}
	return svc, cleanup
}

func mk(svc service.Service, parent, slug string) *store.Node {
	n, err := svc.CreateNode(context.Background(), "alice", store.CreateNodeOptions{
		Name: slug, Slug: slug, ParentPath: parent,
	})
	if err != nil {
		panic(err)
	}
	return n
}

func Example_basicUsage() {
	svc, cleanup := tempService()
	defer cleanup()
	ctx := context.Background()

	mk(svc, "", "docs")
	guide := mk(svc, "docs", "guide")
	fmt.Println(guide.Path, guide.Position)

	n, err := svc.GetByPath(ctx, "docs.guide")
	if err != nil {
		panic(err)
	}
	fmt.Println(n.ID == guide.ID)
	// Output:
	// docs.guide 0
	// true
}

func Example_counters() {
	svc, cleanup := tempService()
	defer cleanup()
	ctx := context.Background()

	docs := mk(svc, "", "docs")
	guide := mk(svc, "docs", "guide")
	d, err := svc.CreateDocument(ctx, "alice", store.CreateDocumentOptions{Title: "Intro"})
	if err != nil {
		panic(err)
	}

	// Only strict ancestors of the bound node count the document.
	if _, err := svc.Bind(ctx, "alice", guide.ID, d.ID, store.RelationOutput); err != nil {
		panic(err)
	}
	docs, _ = svc.GetNode(ctx, docs.ID, false)
	guide, _ = svc.GetNode(ctx, guide.ID, false)
	fmt.Println(docs.SubtreeDocCount, guide.SubtreeDocCount)

	// Deleting the document drops it from the counters.
	if _, err := svc.DeleteDocument(ctx, "alice", d.ID); err != nil {
		panic(err)
	}
	docs, _ = svc.GetNode(ctx, docs.ID, false)
	fmt.Println(docs.SubtreeDocCount)
	// Output:
	// 1 0
	// 0
}

func Example_softDelete() {
	svc, cleanup := tempService()
	defer cleanup()
	ctx := context.Background()

	mk(svc, "", "docs")
	guide := mk(svc, "docs", "guide")

	if _, err := svc.DeleteNode(ctx, "alice", guide.ID); err != nil {
		panic(err)
	}
	_, err := svc.GetByPath(ctx, "docs.guide")
	fmt.Println(store.KindOf(err))

	n, err := svc.RestoreNode(ctx, "alice", guide.ID)
	if err != nil {
		panic(err)
	}
	fmt.Println(n.Path)
	// Output:
	// not_found
	// docs.guide
}

func Example_missingActor() {
	svc, cleanup := tempService()
	defer cleanup()

	_, err := svc.CreateNode(context.Background(), "", store.CreateNodeOptions{Name: "Docs", Slug: "docs"})
	fmt.Println(store.KindOf(err))
	// Output:
	// missing_actor
}
