// Package backup exports profiles to files and restores them.
//
// A backup directory holds one file per variant named after the variant's
// table, for example a_profiles.json and b_profiles.json. Four formats are
// supported: json, xml, yaml and toml. Every format keeps the nested
// settings tree, and loading canonicalises it so that a save followed by a
// load yields field-equal profiles.
//
// Save returns errors. Load never does: a missing, unreadable or malformed
// file is logged and contributes no profiles.
package backup
