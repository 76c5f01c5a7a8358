package filter

// Fixed resonator coefficients for every band the detector cares
// about, reproduced bit-identically from the original filter design.
var (
	CNG = Coeffs{Gain: 116.7453752, Y0: -0.9828688170, Y1: 1.2878183436}  // 1100 Hz fax calling
	CED = Coeffs{Gain: 85.87870006, Y0: -0.9767113407, Y1: -0.1551017476} // 2100 Hz fax answer

	COTVerified = Coeffs{Gain: 160.1528486, Y0: -0.9875119299, Y1: -0.0156100298} // 2010 Hz
	COTSend     = Coeffs{Gain: 43.43337207, Y0: -0.9539525559, Y1: 0.3360345780}  // 1780 Hz

	DTMFLow = [4]Coeffs{
		{Gain: 183.6705768, Y0: -0.9891110494, Y1: 1.6984655220}, // 697 Hz
		{Gain: 166.3521771, Y0: -0.9879774290, Y1: 1.6354206881}, // 770 Hz
		{Gain: 150.4376844, Y0: -0.9867055777, Y1: 1.5582944783}, // 852 Hz
		{Gain: 136.3034877, Y0: -0.9853269818, Y1: 1.4673997821}, // 941 Hz
	}
	DTMFHigh = [4]Coeffs{
		{Gain: 106.3096655, Y0: -0.9811871438, Y1: 1.1532059506}, // 1209 Hz
		{Gain: 96.29842594, Y0: -0.9792313229, Y1: 0.9860778489}, // 1336 Hz
		{Gain: 87.20029263, Y0: -0.9770643703, Y1: 0.7895131023}, // 1477 Hz
		{Gain: 78.96493565, Y0: -0.9746723483, Y1: 0.5613790789}, // 1633 Hz
	}
)

// DTMFDigits maps (lowBandIndex, highBandIndex) to the detected
// digit, per the standard 4x4 DTMF grid.
var DTMFDigits = [4][4]byte{
	{'1', '2', '3', 'A'},
	{'4', '5', '6', 'B'},
	{'7', '8', '9', 'C'},
	{'*', '0', '#', 'D'},
}
