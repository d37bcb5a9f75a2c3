// Package header turns the raw header block of a message or a MIME part into
// a normalized mapping.
//
// ParseLines splits a header block into unfolded Line records. Normalize turns
// those lines into a Map, decoding encoded words and parsing the fields that
// have structure (dates, addresses, message ids, content types, priorities and
// mailing list fields) into Go values. Normalization never fails outright.
// Fields that cannot be parsed are kept raw or dropped and the problem is
// reported back as a warning.
package header
