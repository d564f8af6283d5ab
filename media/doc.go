// Package media defines the track, publication and frame data model shared by
// the stream bridge and the e2ee manager.
//
// A Track binds one frame Source to a stable track SID. A Source is a
// channel-backed pipe: the capture side Pushes frames, the stream producer
// selects on Frames, and CloseSend reports exhaustion by closing the channel.
//
// Frame is a tagged variant over the supported frame kinds (video buffers,
// audio sample blocks). Anything outside the enumerated kinds is rejected at
// stream setup rather than modeled here.
package media
