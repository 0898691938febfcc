package cmd

import "strings"

// envKeyReplacer maps nested keys like match.fuzzy-weight to
// UIINDEX_MATCH_FUZZY_WEIGHT.
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")
