package waveform

// tone421hz is the 19-sample period (8 kHz, peak amplitude 9965) used
// for every cadence built from the "421" descriptor — dial, busy, ring,
// specdial, congestion, outoforder, callwaiting. Its period length
// (8000/19 Hz) lands close to the standard 425 Hz progress tone; the
// samples are bit-exact and are never regenerated from sin/round.
var tone421hz = []int16{
	3246, 6142, 8371, 9694, 9965, 9157, 7357, 4759, 1645,
	-1645, -4759, -7357, -9157, -9965, -9694, -8371, -6142, -3246,
	0,
}
