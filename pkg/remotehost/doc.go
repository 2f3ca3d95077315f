// Package remotehost drives a scene graph in another process over a
// WebSocket.
//
// Server exposes any host.Host as an http.Handler. Client dials a Server and
// implements host.Host, so a mount.Mounter can mount into a remote scene
// graph unchanged:
//
//	client, err := remotehost.Dial(ctx, "ws://localhost:7420/host")
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	handle, err := mount.New(client).Mount(tree, client.Root())
//
// # Wire Protocol
//
// Every WebSocket text message is one JSON Message. On connect the server
// sends a hello carrying the root object id. Requests carry a client-chosen
// id and are answered by a response with the same id. Signals are pushed as
// they fire and may arrive before the response to the request that caused
// them.
//
// # Signals
//
// Remote signals are queued by the client's read loop and delivered only by
// Dispatch, on the caller's goroutine. The mount engine is single-threaded;
// callers run Dispatch from the same loop that mounts and unmounts.
package remotehost
