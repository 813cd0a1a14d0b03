package indexer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestQueue(t *testing.T, workers, buffer int) (*Queue, *fakeDocStore) {
	t.Helper()
	docs := newFakeDocStore()
	p := newTestPipeline(docs, &fakeEmbedder{}, &fakeVectorStore{})
	q := NewQueue(p, workers, buffer)
	t.Cleanup(q.Close)
	return q, docs
}

func TestQueueSubmit(t *testing.T) {
	q, docs := newTestQueue(t, 1, 4)

	done, err := q.Submit(context.Background(), IngestJob{
		DocumentID: "doc-1",
		UserID:     "user-1",
		Text:       "Queued document content.",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	select {
	case jobErr := <-done:
		if jobErr != nil {
			t.Fatalf("job error = %v", jobErr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("job did not complete")
	}

	if _, err := docs.GetByID(context.Background(), "doc-1"); err != nil {
		t.Errorf("document not indexed: %v", err)
	}
}

func TestQueueSubmit_CompletionChannelCloses(t *testing.T) {
	q, _ := newTestQueue(t, 1, 0)

	done, err := q.Submit(context.Background(), IngestJob{DocumentID: "doc-1", UserID: "u", Text: "text."})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	<-done
	// The channel is closed after the single result.
	if _, open := <-done; open {
		t.Error("completion channel not closed")
	}
}

func TestQueueSubmit_ContextCancel(t *testing.T) {
	docs := newFakeDocStore()
	p := newTestPipeline(docs, &fakeEmbedder{}, &fakeVectorStore{})
	// Zero workers is coerced to one; fill its buffer to force blocking.
	q := NewQueue(p, 1, 0)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Cancelled context fails submission once the buffer cannot accept the job
	// immediately. Keep submitting until the select observes the cancel.
	var sawErr bool
	for i := 0; i < 50; i++ {
		_, err := q.Submit(ctx, IngestJob{DocumentID: fmt.Sprintf("doc-%d", i), UserID: "u", Text: "text."})
		if err != nil {
			sawErr = true
			break
		}
	}
	if !sawErr {
		t.Skip("queue drained faster than submissions; cancellation path not exercised")
	}
}

func TestQueueConcurrentSubmissions(t *testing.T) {
	q, docs := newTestQueue(t, 4, 16)

	var wg sync.WaitGroup
	const jobs = 20
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			done, err := q.Submit(context.Background(), IngestJob{
				DocumentID: fmt.Sprintf("doc-%d", i),
				UserID:     "user-1",
				Text:       fmt.Sprintf("Document number %d content.", i),
			})
			if err != nil {
				t.Errorf("Submit() error = %v", err)
				return
			}
			if jobErr := <-done; jobErr != nil {
				t.Errorf("job %d error = %v", i, jobErr)
			}
		}(i)
	}
	wg.Wait()

	records, err := docs.ListByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(records) != jobs {
		t.Errorf("indexed %d documents, want %d", len(records), jobs)
	}
}

func TestQueueClose_Idempotent(t *testing.T) {
	docs := newFakeDocStore()
	p := newTestPipeline(docs, &fakeEmbedder{}, &fakeVectorStore{})
	q := NewQueue(p, 2, 4)

	q.Close()
	q.Close() // must not panic
}
