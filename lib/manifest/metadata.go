// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"

	"howett.net/plist"
)

// metadata is the subset of the keyed-archive metadata blob that the
// engines consume. The blob is an NSKeyedArchiver-style property list:
// a $top dictionary pointing at a root object inside a flat $objects
// array, with cross-references encoded as UIDs. Everything beyond the
// fields below (permission bits, timestamps, extended attributes) is
// carried opaquely and never interpreted.
type metadata struct {
	// Target is the recorded symbolic link target, empty for
	// non-symlink records.
	Target string

	// RelativePath is the path as recorded inside the metadata
	// archive. Informational; the manifest column is authoritative.
	RelativePath string
}

// parseMetadata decodes a keyed-archive metadata blob. Returns an
// error for an empty blob, a blob that is not a property list, or an
// archive whose root reference is dangling.
func parseMetadata(raw []byte) (*metadata, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty metadata blob")
	}

	var top map[string]any
	if _, err := plist.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("decoding property list: %w", err)
	}

	objects, ok := top["$objects"].([]any)
	if !ok {
		return nil, fmt.Errorf("keyed archive has no $objects array")
	}
	topDict, ok := top["$top"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("keyed archive has no $top dictionary")
	}

	root, err := resolveUID(objects, topDict["root"])
	if err != nil {
		return nil, fmt.Errorf("resolving archive root: %w", err)
	}
	rootDict, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("archive root is %T, want dictionary", root)
	}

	meta := &metadata{}
	if target, ok := rootDict["Target"]; ok {
		resolved, err := resolveUID(objects, target)
		if err != nil {
			return nil, fmt.Errorf("resolving Target: %w", err)
		}
		if s, ok := resolved.(string); ok {
			meta.Target = s
		}
	}
	if relative, ok := rootDict["RelativePath"]; ok {
		resolved, err := resolveUID(objects, relative)
		if err != nil {
			return nil, fmt.Errorf("resolving RelativePath: %w", err)
		}
		if s, ok := resolved.(string); ok {
			meta.RelativePath = s
		}
	}
	return meta, nil
}

// resolveUID follows one level of keyed-archive indirection: a
// plist.UID value indexes into the $objects array. Non-UID values are
// returned as-is, since inline scalars are legal in the format.
func resolveUID(objects []any, value any) (any, error) {
	uid, ok := value.(plist.UID)
	if !ok {
		return value, nil
	}
	if uint64(uid) >= uint64(len(objects)) {
		return nil, fmt.Errorf("UID %d out of range (%d objects)", uid, len(objects))
	}
	return objects[uid], nil
}
