/*
Package wire holds the canonical byte encodings of the vote program
payloads that validators sign.

Both payloads are signed as bincode VoteInstruction data: a little endian
u32 variant index followed by the payload. Vote uses plain bincode;
TowerSync uses the compact form the vote program serializes it with
(root sentinel, short_vec of varint slot offsets). Any deviation from these
bytes makes honest signatures fail, so the tests pin the layouts byte for
byte.
*/
package wire
