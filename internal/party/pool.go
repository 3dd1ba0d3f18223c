package party

import _ "embed"

//go:embed questions.json
var defaultPool []byte
