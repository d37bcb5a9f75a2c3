// Package param provides a tool for dealing with parameterized headers. These
// headers include the Content-type and Content-disposition header. In addition,
// it provides some helper methods for breaking down the MIME types that get
// set in the Content-type header and for reading the parameters that matter to
// a parser, such as the charset, the boundary, the file name, and the
// format=flowed settings.
package param
