// Package task wraps a quadcopter simulator as a hover task for
// reinforcement learning.
//
// A [Task] owns one [Simulator]. [Task.Reset] starts an episode near the
// initial altitude, [Task.Step] applies a rotor-speed command and returns
// (observation, reward, done). Observations are normalized altitude offset
// and climb rate, two values per action repeat. The reward is a tanh-shaped
// closeness to the target position, summed over the three axes.
//
// A Task is single-threaded; run independent episodes on independent Tasks.
package task
