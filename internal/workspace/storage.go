// internal/workspace/storage.go
//
// Backend selector: collapses the raw storage block into the tagged
// union.
//
// Context
// -------
// A document may carry blocks for all three backends at once, e.g. stale
// s3 settings left behind after switching to local.  Only the block
// named by storage.mode is authoritative; the others are read and
// discarded without error, for forward and backward compatibility.  The
// selected variant is copied into a fresh struct so the resolved
// configuration never aliases the raw document.
//
// Backend-scoped defaults (s3 prefix, local create_if_missing) are
// applied here rather than by ApplyDefaults, because they only make
// sense for the mode the document selects.
package workspace

// applyStorageDefaults writes the backend-scoped defaults for the
// selected mode into the raw tree.  Non-selected blocks are left alone;
// they are about to be discarded anyway.
func applyStorageDefaults(tree map[string]any) {
	storage, ok := tree["storage"].(map[string]any)
	if !ok {
		return
	}
	mode, _ := storage["mode"].(string)

	switch StorageMode(mode) {
	case ModeLocal:
		setIfAbsent(tree, []string{"storage", "local", "create_if_missing"},
			defaultFor("storage.local.create_if_missing"))
	case ModeS3:
		setIfAbsent(tree, []string{"storage", "s3", "prefix"},
			defaultFor("storage.s3.prefix"))
	}
}

// selectStorage builds the storage union from the unmarshalled document.
// Exactly one variant comes out populated.  Completeness of the selected
// variant (the s3 bucket requirement) is enforced by the cross-field
// pass, which only sees the variant selected here.
func selectStorage(doc *document) StorageConfig {
	mode := StorageMode(doc.Storage.Mode)
	sc := StorageConfig{Mode: mode}

	switch mode {
	case ModeLocal:
		// Payload is optional in its entirety.  An absent base_path stays
		// absent; callers must check HasBasePath instead of receiving an
		// invented directory.
		l := LocalStorage{CreateIfMissing: true}
		if doc.Storage.Local != nil {
			l = *doc.Storage.Local
		}
		sc.Local = &l

	case ModeS3:
		s := S3Storage{}
		if doc.Storage.S3 != nil {
			s = *doc.Storage.S3
		}
		if s.Prefix == "" {
			// Absent or explicitly empty both take the documented default.
			s.Prefix, _ = defaultFor("storage.s3.prefix").(string)
		}
		sc.S3 = &s

	case ModeGDrive:
		g := GDriveStorage{}
		if doc.Storage.GDrive != nil {
			g = *doc.Storage.GDrive
		}
		sc.GDrive = &g
	}

	// An unknown or missing mode leaves all variants nil; the schema pass
	// has already reported it.
	return sc
}
