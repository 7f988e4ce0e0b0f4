// Package livechannel is the websocket client for the dmxbox live channel at
// /api/ws. It sends start-scan and stop-scan control messages and hands
// access-point-found events to a scan.Controller.
//
// Typical wiring:
//
//	conn, _ := livechannel.New("http://192.168.4.1")
//	ctrl := scan.NewController(conn)
//	conn.SetHandler(func(window uint64, s scan.Sighting) { ctrl.DeliverGeneration(window, s) })
//	go conn.Run(ctx)
package livechannel
