// Package neatris evolves recurrent neural network controllers with the
// NeuroEvolution of Augmenting Topologies (NEAT) algorithm and ships a small
// falling-block puzzle for them to learn.
//
// NEAT grows both the weights and the structure of its networks. Genomes are
// lists of connection genes tagged with historical innovation numbers, which
// let structurally different genomes be aligned for crossover and compared for
// speciation.
//
// Packages:
//
//	neat        genomes, mutation, crossover, speciation, reproduction and the Evolver
//	neat/nn     the recurrent phenotype network built from a genome
//	neat/sim    the Simulator contract and an Evaluator turning episodes into fitness
//	blockfall   the falling-block puzzle as a Simulator
//	metrics     Prometheus reporting of evolution progress
//
// Basic usage:
//
//	// Load configuration
//	config, err := neat.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	evaluator := &sim.Evaluator{Factory: blockfall.NewSimulator, Seeds: []int64{0, 1, 2}}
//	evolver, err := neat.NewEvolver(config, evaluator.Fitness)
//	if err != nil {
//		log.Fatalf("Error creating evolver: %v", err)
//	}
//
//	// Run for 100 generations, stopping early at fitness_threshold
//	winner, err := evolver.Run(ctx, 100)
//	if err != nil {
//		log.Fatalf("Error running evolution: %v", err)
//	}
package neatris
