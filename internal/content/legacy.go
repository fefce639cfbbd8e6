package content

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/tenex-chat/inkwell/internal/record"
)

// Earlier releases wrote message_drafts.json as a container object holding
// the drafts map alongside pending publish snapshots:
//
//	{"drafts": {...}, "pending_publishes": {...}}
//
// Current files store the drafts map at the top level. unwrapLegacyDrafts
// detects the old shape and lifts the nested map out so both generations
// decode through the same path. Snapshot extraction happens separately at
// vault open, see extractLegacySnapshots.

func unwrapLegacyDrafts(raw []byte) []byte {
	if !gjson.ValidBytes(raw) {
		return raw
	}
	drafts := gjson.GetBytes(raw, "drafts")
	if !drafts.IsObject() {
		return raw
	}
	return []byte(drafts.Raw)
}

// extractLegacySnapshots pulls pending publish snapshots out of a legacy
// container file. Returns nil when the file is not in the legacy shape or
// the nested object does not decode.
func extractLegacySnapshots(raw []byte) record.SnapshotMap {
	if !gjson.ValidBytes(raw) {
		return nil
	}
	if !gjson.GetBytes(raw, "drafts").IsObject() {
		return nil
	}
	pending := gjson.GetBytes(raw, "pending_publishes")
	if !pending.IsObject() {
		return nil
	}
	var snaps record.SnapshotMap
	if err := json.Unmarshal([]byte(pending.Raw), &snaps); err != nil {
		return nil
	}
	return snaps
}
