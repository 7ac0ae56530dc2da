package bufsplit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/anjor/bufsplit/internal/constants"
	"github.com/anjor/bufsplit/internal/digest"
	"github.com/anjor/bufsplit/internal/util/text"

	"github.com/ipfs/go-qringbuf"
	"go.uber.org/zap"
)

const (
	ErrorString = IngestionEventType(iota)
	NewPieceJsonl
)

type IngestionEvent struct {
	_    constants.Incomparabe
	Type IngestionEventType
	Body string
}
type IngestionEventType int

func (bs *Bufsplit) maybeSendEvent(t IngestionEventType, s string) {
	if bs.externalEventBus != nil {
		bs.externalEventBus <- IngestionEvent{Type: t, Body: s}
	}
}

var preProcessTasks, postProcessTasks func(bs *Bufsplit)

// ProcessReader reads inputReader until EOF, splits the result and writes
// the pieces (or, with --dry-run, only names them). When optionalEventChan
// is not nil it receives one NewPieceJsonl event per piece and is closed
// before returning.
func (bs *Bufsplit) ProcessReader(inputReader io.Reader, optionalEventChan chan<- IngestionEvent) (err error) {

	var t0 time.Time

	bs.externalEventBus = optionalEventChan
	defer func() {
		if err != nil {
			bs.maybeSendEvent(ErrorString, err.Error())
		}

		if postProcessTasks != nil {
			postProcessTasks(bs)
		}

		if bs.externalEventBus != nil {
			close(bs.externalEventBus)
		}

		bs.statSummary.SysStats.ElapsedNsecs = time.Since(t0).Nanoseconds()
	}()

	if preProcessTasks != nil {
		preProcessTasks(bs)
	}
	t0 = time.Now()

	bs.mu.Lock()
	bs.pieces = make(map[int]pieceStats, 64)
	bs.writesClosed = false
	bs.mu.Unlock()

	buf, err := bs.slurp(inputReader)
	if err != nil {
		return fmt.Errorf(
			"reading input failed after %s bytes: %w",
			text.Commify(len(buf)),
			err,
		)
	}
	bs.statSummary.Input.Size = int64(len(buf))

	bs.logger.Info("input read",
		zap.Int("bytes", len(buf)),
		zap.Bool("asyncWrites", bs.cfg.AsyncWrites),
		zap.Bool("dryRun", bs.cfg.DryRun),
	)

	switch {
	case bs.cfg.DryRun:
		err = bs.dryRun(buf)
	case bs.cfg.AsyncWrites:
		res := make(chan error, 1)
		Split(buf, bs.splitOptions, func(e error, _ [][]byte) { res <- e }, bs.splitExtra...)
		err = <-res
	default:
		_, err = SplitSync(buf, bs.splitOptions, bs.splitExtra...)
	}
	bs.closeWrites()
	if err != nil {
		return err
	}

	return bs.emitPieces()
}

func (bs *Bufsplit) slurp(r io.Reader) (buf []byte, err error) {

	qrb, err := qringbuf.NewFromReader(r, qringbuf.Config{
		MinRegion:   constants.RingBufferMinRegion,
		MinRead:     bs.cfg.RingBufferMinRead,
		MaxCopy:     constants.RingBufferMaxCopy,
		BufferSize:  bs.cfg.RingBufferSize,
		SectorSize:  bs.cfg.RingBufferSectSize,
		Stats:       &bs.statSummary.SysStats.Stats,
		TrackTiming: ((bs.cfg.StatsActive & statsRingbuf) == statsRingbuf),
	})
	if err != nil {
		return nil, err
	}

	if err = qrb.StartFill(0); err != nil {
		return nil, err
	}

	for {
		region, readErr := qrb.NextRegion(0)
		if region == nil || (readErr != nil && readErr != io.EOF) {
			if readErr == io.EOF {
				readErr = nil
			}
			return buf, readErr
		}

		buf = append(buf, region.Bytes()...)
	}
}

func (bs *Bufsplit) dryRun(buf []byte) error {
	opts := make(Options, len(bs.splitOptions)+1)
	for k, v := range bs.splitOptions {
		opts[k] = v
	}
	opts[OptPrefix] = defaultPrefix

	plan, err := Prepare(buf, opts, bs.splitExtra...)
	if err != nil {
		return err
	}

	for i := range plan.Pieces {
		bs.recordPiece(Piece{Index: i, Name: plan.Names[i], Data: plan.Pieces[i]})
	}
	return nil
}

var errWritesClosed = errors.New("not written, an earlier piece failed")

// WritePiece persists a piece to the file system and records its stats.
// Called concurrently under --async-writes.
func (bs *Bufsplit) WritePiece(p Piece) error {
	bs.mu.Lock()
	if bs.writesClosed {
		bs.mu.Unlock()
		return errWritesClosed
	}
	bs.writesInFlight.Add(1)
	bs.mu.Unlock()
	defer bs.writesInFlight.Done()

	if err := bs.fileWriter.WriteFile(p.Name, p.Data); err != nil {
		return err
	}
	bs.recordPiece(p)
	return nil
}

// After a failed async split the remaining writes are still being
// scheduled: refuse the ones not yet started and wait out the rest, so that
// nothing touches the file system or the stats once ProcessReader returns.
func (bs *Bufsplit) closeWrites() {
	bs.mu.Lock()
	bs.writesClosed = true
	bs.mu.Unlock()
	bs.writesInFlight.Wait()
}

// Only stores what the final pass needs: duplicates and totals are settled
// in emitPieces, in index order, so neither depends on write scheduling.
func (bs *Bufsplit) recordPiece(p Piece) {

	// the hasher name was validated during argument parsing
	d, _ := digest.Sum(bs.cfg.hashFunc, p.Data)

	ps := pieceStats{
		Index:  p.Index,
		Name:   p.Name,
		Size:   int64(len(p.Data)),
		Digest: bs.formattedDigest(d),
	}
	if (bs.cfg.StatsActive & statsPieces) == statsPieces {
		ps.seenKey = digest.SeenKey(p.Data)
	}

	bs.mu.Lock()
	bs.pieces[p.Index] = ps
	bs.mu.Unlock()
}

// Runs only once every piece is in. Late writes after a failed async split
// never reach this point, and never touch the summary.
func (bs *Bufsplit) emitPieces() error {

	bs.mu.Lock()
	ordered := make([]pieceStats, 0, len(bs.pieces))
	for _, ps := range bs.pieces {
		ordered = append(ordered, ps)
	}
	bs.mu.Unlock()

	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	dedup := (bs.cfg.StatsActive & statsPieces) == statsPieces
	seen := make(seenPieces, len(ordered))
	out := &bs.statSummary.Output
	for i := range ordered {
		if dedup {
			if _, ordered[i].Dup = seen[ordered[i].seenKey]; !ordered[i].Dup {
				seen[ordered[i].seenKey] = struct{}{}
			}
		}
		out.Pieces++
		out.Size += ordered[i].Size
		if !ordered[i].Dup {
			out.UniquePieces++
		}
	}
	bs.statSummary.Pieces = ordered

	if bs.cfg.emitters[emPiecesJsonl] == nil && bs.externalEventBus == nil {
		return nil
	}

	for _, ps := range ordered {
		jsonl, err := json.Marshal(struct {
			Event string `json:"event"`
			pieceStats
		}{"piece", ps})
		if err != nil {
			return err
		}
		jsonl = append(jsonl, '\n')

		bs.maybeSendEvent(NewPieceJsonl, string(jsonl))
		if w := bs.cfg.emitters[emPiecesJsonl]; w != nil {
			if _, err := w.Write(jsonl); err != nil {
				return fmt.Errorf("emitting '%s' failed: %w", emPiecesJsonl, err)
			}
		}
	}

	return nil
}
