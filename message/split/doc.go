// Package split reads a message and splits it into a flat stream of
// structural events without ever holding more than one line (or one header
// block) in memory.
//
// A KindNode event is emitted for every part of the message, including the
// message itself, once its header has been read. Every node gets an ID that is
// larger than the ID of every node before it and the ID of the multipart node
// it belongs to as its ParentID, which is all a consumer needs to rebuild the
// tree of parts. Body bytes of leaf parts are emitted as KindBody events.
// Everything else (preambles, boundary lines, epilogues) is emitted as KindData
// events. Concatenating the header blocks, body bytes, and data bytes in the
// order emitted gives back the input.
package split
