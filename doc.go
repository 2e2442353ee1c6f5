// Package vecmatch embeds the reciprocal matching engine in a Go process,
// backed by Redis 8+ or Valkey with the search module.
//
// The same engine runs behind the NATS worker in cmd/vecmatch. Use this
// package when profiles and feedback arrive through your own transport.
//
//	client, _ := vecmatch.New(
//	    vecmatch.WithRedis("localhost:6379", ""),
//	    vecmatch.WithOpenAI(os.Getenv("OPENAI_API_KEY"), "text-embedding-3-small", 1536),
//	)
//	defer client.Close()
//
//	res, _ := client.AddProfile(ctx, vecmatch.Profile{
//	    ID:         "alice",
//	    Group:      vecmatch.GroupFemale,
//	    SelfText:   "climber, reads sci-fi",
//	    SearchText: "someone who likes the outdoors",
//	})
//	out, _ := client.Feedback(ctx, vecmatch.Feedback{
//	    ActorID: "alice", TargetID: res.Candidates[0].ID, Status: vecmatch.Liked,
//	})
//	for _, m := range out.Matches { ... }
package vecmatch
