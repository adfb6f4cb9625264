package config

// DefaultWhitelist returns the curated golf channels the directory tracks
// when CHANNEL_WHITELIST is not set.
func DefaultWhitelist() []string {
	return []string{
		"UCfi-mPMOmche6WI-jkvnGXw", // Good Good
		"UCbY_v56iMzSGvXK79X6f4dw", // Good Good Extra
		"UCqr4sONkmFEOPc3rfoVLEvg", // Bob Does Sports
		"UCgUueMmSpcl-aCTt5CuCKQw", // Grant Horvat Golf
		"UCJcc1x6emfrQquiV8Oe_pug", // Luke Kwon Golf
		"UCsazhBmAVDUL_WYcARQEFQA", // The Lads
		"UC3jFoA7_6BTV90hsRSVHoaw", // Phil Mickelson and the HyFlyers
		"UCfdYeBYjouhibG64ep_m4Vw", // Micah Morris
		"UCjchle1bmH0acutqK15_XSA", // Brad Dalke
		"UCdCxaD8rWfAj12rloIYS6jQ", // Bryan Bros Golf
		"UCB0NRdlQ6fBYQX8W8bQyoDA", // MyTPI
		"UCyy8ULLDGSm16_EkXdIt4Gw", // Titleist
		"UClJO9jvaU5mvNuP-XTbhHGw", // TaylorMade Golf
		"UCFHZHhZaH7Rc_FOMIzUziJA", // Rick Shiels Golf
		"UCFoez1Xjc90CsHvCzqKnLcw", // Peter Finch Golf
		"UCCxF55adGXOscJ3L8qdKnrQ", // Bryson DeChambeau
		"UCZelGnfKLXic4gDP63dIRxw", // Mark Crossfield
		"UCaeGjmOiTxekbGUDPKhoU-A", // Golf Sidekick
		"UCtNpbO2MtsVY4qW23WfnxGg", // James Robinson Golf
		"UCUOqlmPAo8h4pVQ4cuRECUg", // Big Wedge Golf
		"UClljAz6ZKy0XeViKsohdjqA", // GM Golf
		"UCSwdmDQhAi_-ICkAvNBLEBw", // Danny Maude
		"UCJolpQHWLAW6cCUYGgean8w", // Padraig Harrington
		"UCuXIBwKQeH9cnLOv7w66cJg", // MrShortGame Golf
		"UCXvDkP2X3aE9yrPavNMJv0A", // JnA Golf
		"UCamOYT0c_pSrSCu9c8CyEcg", // Bryan Bros TV
		"UCrgGz4gZxWu77Nw5RXcxlRg", // Josh Mayer
		"UCCry5X3Phfmz0UzqRNm0BPA", // Golf Girl Games
		"UCwMgdK0S57nEdN_RGaajwOQ", // GOLF LIFE
	}
}
