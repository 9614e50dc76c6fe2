package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// stream turns query snapshots into one row per added or modified document.
type stream struct {
	iter    *firestore.QuerySnapshotIterator
	eb      *goerr.Builder
	started bool
	pending []alert.Alert
}

func newStream(ctx context.Context, q firestore.Query, eb *goerr.Builder) *stream {
	return &stream{
		iter: q.Snapshots(ctx),
		eb:   eb,
	}
}

func (s *stream) Next(ctx context.Context) (*alert.Alert, error) {
	for len(s.pending) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snap, err := s.iter.Next()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if err == iterator.Done || status.Code(err) == codes.Canceled {
				return nil, s.eb.New("realtime feed closed", goerr.T(errs.TagTransport))
			}
			return nil, s.eb.Wrap(err, "realtime feed broken", goerr.T(errs.TagTransport))
		}

		if err := s.collect(ctx, snap); err != nil {
			return nil, err
		}
	}

	row := s.pending[0]
	s.pending = s.pending[1:]
	return &row, nil
}

func (s *stream) collect(ctx context.Context, snap *firestore.QuerySnapshot) error {
	// The first snapshot carries the full result set.
	if !s.started {
		s.started = true
		docs, err := snap.Documents.GetAll()
		if err != nil {
			return s.eb.Wrap(err, "failed to read initial snapshot", goerr.T(errs.TagTransport))
		}
		for _, doc := range docs {
			s.appendDoc(ctx, doc.Ref.ID, doc)
		}
		return nil
	}

	for _, change := range snap.Changes {
		if change.Kind == firestore.DocumentRemoved {
			continue
		}
		s.appendDoc(ctx, change.Doc.Ref.ID, change.Doc)
	}
	return nil
}

type documentData interface {
	DataTo(p any) error
}

// appendDoc queues one decoded row. A document that does not decode is
// reported and skipped; failing the stream would replay it on every reconnect.
func (s *stream) appendDoc(ctx context.Context, id string, doc documentData) {
	var a alert.Alert
	if err := doc.DataTo(&a); err != nil {
		errs.Handle(ctx, s.eb.Wrap(err, "failed to decode alert document",
			goerr.TV(errutil.AlertIDKey, types.AlertID(id))))
		return
	}
	s.pending = append(s.pending, a)
}

func (s *stream) Close() {
	s.iter.Stop()
}
