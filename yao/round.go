//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package yao

import (
	"github.com/cockroachdb/errors"
	"github.com/markkurossi/yaovm/circuit"
	"github.com/markkurossi/yaovm/ot"
	"github.com/markkurossi/yaovm/p2p"
	"github.com/markkurossi/yaovm/vm"
)

// Round status values.
const (
	statusMore = 1
	statusDone = 2
)

// round holds the garbled material of one execution slice. The
// tables buffer holds 16-byte blocks in execution order: two per AND
// gate, one per garbler input bit, and one per random bit. The masks
// buffer holds the permute bits of the revealed wires.
type round struct {
	done    bool
	tables  []byte
	tpos    int
	masks   bitBuffer
	batches []int

	// Garbler: zero labels of the evaluator input batches.
	inputs [][]ot.Label

	// Evaluator: received labels of the evaluator input batches.
	labels [][]ot.Label
}

func (r *round) addTable(n int) []byte {
	ofs := len(r.tables)
	need := ofs + n
	if need > cap(r.tables) {
		size := 2 * cap(r.tables)
		if size < need {
			size = need
		}
		buf := make([]byte, ofs, size)
		copy(buf, r.tables)
		r.tables = buf
	}
	r.tables = r.tables[:need]
	return r.tables[ofs:need]
}

func (r *round) addLabel(l ot.Label) {
	ot.PutLabel(r.addTable(16), l)
}

func (r *round) table(n int) ([]byte, error) {
	if r.tpos+n > len(r.tables) {
		return nil, errors.Wrapf(ErrProtocol,
			"garbled tables exhausted: need %d bytes, have %d",
			n, len(r.tables)-r.tpos)
	}
	data := r.tables[r.tpos : r.tpos+n]
	r.tpos += n
	return data, nil
}

func (r *round) label() (ot.Label, error) {
	data, err := r.table(16)
	if err != nil {
		return ot.Label{}, err
	}
	return ot.GetLabel(data), nil
}

// consumed verifies that the evaluator used all round material.
func (r *round) consumed() error {
	if r.tpos != len(r.tables) {
		return errors.Wrapf(ErrProtocol, "%d unused table bytes",
			len(r.tables)-r.tpos)
	}
	if r.masks.remaining() != 0 {
		return errors.Wrapf(ErrProtocol, "%d unused output masks",
			r.masks.remaining())
	}
	if len(r.labels) != 0 {
		return errors.Wrapf(ErrProtocol, "%d unused input batches",
			len(r.labels))
	}
	return nil
}

func (r *round) send(conn *p2p.Conn) error {
	status := statusMore
	if r.done {
		status = statusDone
	}
	if err := conn.SendUint32(status); err != nil {
		return err
	}
	if err := conn.SendData(r.tables); err != nil {
		return err
	}
	if err := conn.SendUint32(r.masks.n); err != nil {
		return err
	}
	if err := conn.SendData(r.masks.data); err != nil {
		return err
	}
	if err := conn.SendUint32(len(r.batches)); err != nil {
		return err
	}
	for _, n := range r.batches {
		if err := conn.SendUint32(n); err != nil {
			return err
		}
	}
	return nil
}

// receiveData receives data of at most limit bytes. Oversized data
// is a protocol error.
func receiveData(conn *p2p.Conn, limit int, what string) ([]byte, error) {
	data, err := conn.ReceiveDataMax(limit)
	if errors.Is(err, p2p.ErrTooLarge) {
		return nil, errors.Mark(errors.Wrap(err, what), ErrProtocol)
	}
	return data, err
}

// receiveRound receives a round message. The limits bound the
// material of one execution slice.
func receiveRound(conn *p2p.Conn, limits vm.SliceLimits) (*round, error) {
	status, err := conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if status != statusMore && status != statusDone {
		return nil, errors.Wrapf(ErrProtocol, "invalid round status %d",
			status)
	}
	tables, err := receiveData(conn, limits.TableBytes(), "garbled tables")
	if err != nil {
		return nil, err
	}
	if len(tables)%16 != 0 {
		return nil, errors.Wrapf(ErrProtocol, "invalid table size %d",
			len(tables))
	}
	numMasks, err := conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if numMasks > limits.Reveals {
		return nil, errors.Wrapf(ErrProtocol, "%d output masks, limit %d",
			numMasks, limits.Reveals)
	}
	masks, err := receiveData(conn, (numMasks+7)/8, "output masks")
	if err != nil {
		return nil, err
	}
	if len(masks) != (numMasks+7)/8 {
		return nil, errors.Wrapf(ErrProtocol,
			"invalid mask size %d for %d masks", len(masks), numMasks)
	}
	numBatches, err := conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if numBatches > limits.Inputs {
		return nil, errors.Wrapf(ErrProtocol, "%d input batches, limit %d",
			numBatches, limits.Inputs)
	}
	r := &round{
		done:   status == statusDone,
		tables: tables,
		masks:  *newBitBuffer(masks, numMasks),
	}
	for i := 0; i < numBatches; i++ {
		n, err := conn.ReceiveUint32()
		if err != nil {
			return nil, err
		}
		if n < 1 || n > 64 {
			return nil, errors.Wrapf(ErrProtocol,
				"invalid input batch size %d", n)
		}
		r.batches = append(r.batches, n)
	}
	return r, nil
}

// tableBytes returns the number of garbled table bytes for the AND
// gates.
func tableBytes(gates int) int {
	return gates * circuit.TableSize
}
