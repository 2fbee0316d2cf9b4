// Package scoring serves search policy scores over a request/reply socket.
//
// A request is RequestFields little-endian float64 values: the node's
// feature vector followed by the policy id. A reply is two little-endian
// float64 values, 0 and the score.
package scoring

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dd0wney/nodesel-dagger/pkg/features"
)

const (
	// RequestFields is the number of float64 values in a request.
	RequestFields = features.Size + 1
	// RequestSize is the byte length of a request.
	RequestSize = RequestFields * 8
	// ReplySize is the byte length of a reply.
	ReplySize = 2 * 8
)

// EncodeRequest builds a request for feats scored by policy policyID.
func EncodeRequest(feats []float64, policyID int) ([]byte, error) {
	if len(feats) != features.Size {
		return nil, fmt.Errorf("feature vector has %d values, want %d", len(feats), features.Size)
	}
	buf := make([]byte, RequestSize)
	for i, v := range feats {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	binary.LittleEndian.PutUint64(buf[features.Size*8:], math.Float64bits(float64(policyID)))
	return buf, nil
}

// DecodeRequest splits a request into features and policy id.
func DecodeRequest(buf []byte) ([]float64, int, error) {
	if len(buf) != RequestSize {
		return nil, 0, fmt.Errorf("request has %d bytes, want %d", len(buf), RequestSize)
	}
	feats := make([]float64, features.Size)
	for i := range feats {
		feats[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	raw := math.Float64frombits(binary.LittleEndian.Uint64(buf[features.Size*8:]))
	if math.IsNaN(raw) || raw < 0 || raw != math.Trunc(raw) || raw > math.MaxInt32 {
		return nil, 0, fmt.Errorf("invalid policy id %v", raw)
	}
	return feats, int(raw), nil
}

// EncodeReply builds the reply carrying score.
func EncodeReply(score float64) []byte {
	buf := make([]byte, ReplySize)
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(score))
	return buf
}

// DecodeReply extracts the score from a reply.
func DecodeReply(buf []byte) (float64, error) {
	if len(buf) != ReplySize {
		return 0, fmt.Errorf("reply has %d bytes, want %d", len(buf), ReplySize)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[8:])), nil
}
