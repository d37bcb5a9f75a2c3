// Package transfer contains the decoders for transfer encodings, which
// interpret the Content-transfer-encoding header to undo the 8bit to 7bit
// encodings applied to message content. Only quoted-printable, base64, and the
// uuencode family will actually change the content being decoded. Other
// settings such as binary, 7bit, or 8bit, or settings that are not recognized
// at all, result in the bytes being left as-is.
//
// The decoders are lenient. Mail found in the wild is frequently broken, so
// invalid escapes are passed through and junk is skipped rather than failing
// the read.
//
// For the sake of this package, the term "decoded" means that the content has
// been transformed from the named Content-transfer-encoding to the charset
// encoded form.
package transfer
