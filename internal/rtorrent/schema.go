package rtorrent

import (
	"fmt"
	"strconv"
	"strings"
)

// field pairs a d.multicall2 getter with the Job attribute it fills.
type field struct {
	getter string
	assign func(*Job, any)
}

// schema is an ordered projection. The daemon answers with tuples in the
// same order, so every call site of a query shape must share one schema.
type schema []field

var (
	fieldHash           = field{"d.hash=", func(j *Job, v any) { j.Hash = asString(v) }}
	fieldName           = field{"d.name=", func(j *Job, v any) { j.Name = asString(v) }}
	fieldSizeBytes      = field{"d.size_bytes=", func(j *Job, v any) { j.SizeBytes = asInt64(v) }}
	fieldComplete       = field{"d.complete=", func(j *Job, v any) { j.Complete = asBool(v) }}
	fieldCompletedBytes = field{"d.completed_bytes=", func(j *Job, v any) { j.CompletedBytes = asInt64(v) }}
	fieldDirectory      = field{"d.directory=", func(j *Job, v any) { j.Directory = asString(v) }}
	fieldRatio          = field{"d.ratio=", func(j *Job, v any) { j.Ratio = float64(asInt64(v)) / 1000 }}
	fieldIsActive       = field{"d.is_active=", func(j *Job, v any) { j.Active = asBool(v) }}
	fieldIsOpen         = field{"d.is_open=", func(j *Job, v any) { j.Open = asBool(v) }}
	fieldIsHashChecking = field{"d.is_hash_checking=", func(j *Job, v any) { j.HashChecking = asBool(v) }}
	fieldLabel          = field{"d.custom1=", func(j *Job, v any) { j.Label = asString(v) }}
	fieldDownRate       = field{"d.down.rate=", func(j *Job, v any) { j.DownRate = asInt64(v) }}
	fieldUpRate         = field{"d.up.rate=", func(j *Job, v any) { j.UpRate = asInt64(v) }}
	fieldPeers          = field{"d.peers_accounted=", func(j *Job, v any) { j.Peers = asInt64(v) }}
	fieldPriority       = field{"d.priority=", func(j *Job, v any) { j.Priority = Priority(asInt64(v)) }}
)

var (
	listSchema = schema{
		fieldHash,
		fieldName,
		fieldSizeBytes,
		fieldComplete,
		fieldCompletedBytes,
		fieldDirectory,
		fieldRatio,
		fieldIsActive,
		fieldIsOpen,
		fieldIsHashChecking,
		fieldLabel,
		fieldDownRate,
		fieldUpRate,
	}

	// detailSchema must stay a superset of listSchema.
	detailSchema = schema{
		fieldHash,
		fieldName,
		fieldDirectory,
		fieldSizeBytes,
		fieldComplete,
		fieldCompletedBytes,
		fieldLabel,
		fieldDownRate,
		fieldUpRate,
		fieldIsActive,
		fieldIsOpen,
		fieldIsHashChecking,
		fieldPeers,
		fieldPriority,
		fieldRatio,
	}

	confirmSchema = schema{fieldHash, fieldName}
)

func (s schema) getters() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.getter
	}
	return out
}

// args builds the d.multicall2 argument list: empty target, view, getters.
func (s schema) args(view string) []any {
	args := make([]any, 0, len(s)+2)
	args = append(args, "", view)
	for _, f := range s {
		args = append(args, f.getter)
	}
	return args
}

func (s schema) decode(row []any) (Job, error) {
	if len(row) != len(s) {
		return Job{}, fmt.Errorf("%w: expected %d fields, got %d", ErrProtocolFault, len(s), len(row))
	}

	var job Job
	for i, f := range s {
		f.assign(&job, row[i])
	}
	return job, nil
}

func asRows(raw any) ([][]any, error) {
	if raw == nil {
		return nil, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected array result, got %T", ErrProtocolFault, raw)
	}

	rows := make([][]any, 0, len(list))
	for _, item := range list {
		row, ok := item.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected array row, got %T", ErrProtocolFault, item)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func asInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float64:
		return int64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func asBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return asInt64(v) != 0
}
