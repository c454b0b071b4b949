// Package edgetts wraps the edge-tts command line tool, which renders
// text to speech through Microsoft Edge's online voices. The client
// shells out once per text, throttles request starts when configured,
// and verifies that a non-empty media file was produced.
package edgetts
