package domain

// KeyPrefix namespaces every Redis key written by kbindex.
// Key patterns: kbindex:collection:{name}, kbindex:{name}:{id},
// kbindex:{name}:idx, kbindex:seq:{name}.
const KeyPrefix = "kbindex:"
